package domain

// domain package contains the Domain Models and Interfaces for the dbflow application.
//
// `domain/dbflow` package exposes the root object for the application.
// Entrypoints should instantiate the Dbflow object and use it to interact with the domain.
//
// `domain/ENTITY.go` has high-level entities (Domain Model types) and functions.
// For example, `domain/file.go` contains the `File` entity.
//
// `domain/ENTITY` directory contains the "physical" representation of the domain
// entities in the RDB. `domain/ENTITY/db/ENTITY.go` exposes the client interface,
// `domain/ENTITY/db/postgres` implements it, and `domain/ENTITY/db/mock` is for tests.
//
// # Entities
//
// Core entities in the domain are:
//
// - `mission`: the top-level namespace of an archive, with its satellites,
// instruments, products and inspectors. One mission per catalog is the
// supported case.
//
// - `product`: a typed family of files. Its format template both names new
// files and, read as a regex, recognizes existing ones.
//
// - `file`: one archived file of a product, carrying coverage times, a
// three-component Version, and the newest-version flag for its (product, date).
//
// - `process`: a declarative rule turning input products into one output
// product by running a `code` (an external executable). Product-process links
// declare which products a process consumes, optionally widened to the
// previous/next day.
//
// - `queue`: file ids awaiting downstream build evaluation. When a file is
// ingested its id is pushed; the build loop pops ids and asks the dependency
// resolver which (process, date) pairs became ready.
//
// - `logging`: audit rows for processing sessions and per-file contributions,
// plus the "currently processing" guard that serializes sessions.
//
// - `release`: append-only snapshots tagging every current-newest file id
// under a release number.
//
// Lineage of produced files is recorded as file-file links (input -> output)
// and file-code links (output -> producing code).
