package mission

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/opensdc/dbflow/pkg/domain"
	dbflowdb "github.com/opensdc/dbflow/pkg/domain/dbflow/db"
	"github.com/opensdc/dbflow/pkg/utils/slices"
)

// Register writes the configured entity tree into the catalog.
//
// Registration is idempotent: entities are matched by natural key, so
// loading the same config twice changes nothing. New codes and inspectors
// demote the previously newest ones.
func (c *Config) Register(ctx context.Context, db dbflowdb.Database) error {
	mission, err := db.Mission().RegisterMission(ctx, domain.Mission{
		Name:     c.Mission.Name,
		Rootdir:  c.Mission.Rootdir,
		Incoming: c.Mission.IncomingDir,
	})
	if err != nil {
		return fmt.Errorf("register mission %s: %w", c.Mission.Name, err)
	}

	satellite, err := db.Mission().RegisterSatellite(ctx, domain.Satellite{
		Name: c.Satellite.Name, MissionId: mission.Id,
	})
	if err != nil {
		return fmt.Errorf("register satellite %s: %w", c.Satellite.Name, err)
	}

	instrument, err := db.Mission().RegisterInstrument(ctx, domain.Instrument{
		Name: c.Instrument.Name, SatelliteId: satellite.Id,
	})
	if err != nil {
		return fmt.Errorf("register instrument %s: %w", c.Instrument.Name, err)
	}

	productIds := map[string]int64{} // section tag -> catalog id
	for _, tag := range sortedKeys(c.Products) {
		section := c.Products[tag]
		product, err := db.Mission().RegisterProduct(ctx, domain.Product{
			Name:         section.Name,
			InstrumentId: instrument.Id,
			RelativePath: section.RelativePath,
			Format:       section.Format,
			Level:        section.Level,
			Description:  section.Description,
		})
		if err != nil {
			return fmt.Errorf("register product [%s]: %w", tag, err)
		}
		productIds[tag] = product.Id

		if section.InspectorFilename == "" {
			continue
		}
		version, err := domain.ParseVersion(section.InspectorVersion)
		if err != nil {
			return ConfigError{Section: tag, Key: "inspector_version", Reason: err.Error()}
		}
		outputInterface := section.InspectorOutputInterface
		if outputInterface == 0 {
			outputInterface = version.Interface
		}
		if _, err := db.Mission().RegisterInspector(ctx, domain.Inspector{
			Filename:               section.InspectorFilename,
			RelativePath:           section.InspectorRelativePath,
			Description:            section.InspectorDescription,
			ProductId:              product.Id,
			Version:                version,
			Active:                 section.InspectorActive,
			Arguments:              section.InspectorArguments,
			DateWritten:            section.InspectorDateWritten,
			OutputInterfaceVersion: outputInterface,
		}); err != nil {
			return fmt.Errorf("register inspector of [%s]: %w", tag, err)
		}
	}

	for _, tag := range sortedKeys(c.Processes) {
		section := c.Processes[tag]

		timebase, err := domain.AsTimebase(section.OutputTimebase)
		if err != nil {
			return ConfigError{Section: tag, Key: "output_timebase", Reason: err.Error()}
		}

		process, err := db.Process().RegisterProcess(ctx, domain.Process{
			Name:            section.Name,
			OutputProductId: productIds[section.OutputProduct],
			OutputTimebase:  timebase,
			ExtraParams:     section.ExtraParams,
		})
		if err != nil {
			return fmt.Errorf("register process [%s]: %w", tag, err)
		}

		version, err := domain.ParseVersion(section.CodeVersion)
		if err != nil {
			return ConfigError{Section: tag, Key: "code_version", Reason: err.Error()}
		}
		startDate, err := time.ParseInLocation("2006-01-02", section.CodeStartDate, time.UTC)
		if err != nil {
			return ConfigError{Section: tag, Key: "code_start_date", Reason: err.Error()}
		}
		stopDate, err := time.ParseInLocation("2006-01-02", section.CodeStopDate, time.UTC)
		if err != nil {
			return ConfigError{Section: tag, Key: "code_stop_date", Reason: err.Error()}
		}
		outputInterface := section.CodeOutputInterface
		if outputInterface == 0 {
			outputInterface = version.Interface
		}

		if _, err := db.Process().RegisterCode(ctx, domain.Code{
			Filename:               section.CodeFilename,
			RelativePath:           section.CodeRelativePath,
			ProcessId:              process.Id,
			Version:                version,
			CodeStartDate:          startDate,
			CodeStopDate:           stopDate,
			Active:                 section.CodeActive,
			NewestVersion:          true,
			OutputInterfaceVersion: outputInterface,
			Arguments:              section.CodeArguments,
			DateWritten:            section.CodeDateWritten,
			Description:            section.CodeDescription,
			Ram:                    section.CodeRam,
			Cpu:                    section.CodeCpu,
		}); err != nil {
			return fmt.Errorf("register code of [%s]: %w", tag, err)
		}

		for _, in := range section.Inputs {
			if err := db.Process().RegisterInputLink(ctx, domain.ProductProcessLink{
				InputProductId: productIds[in.ProductTag],
				ProcessId:      process.Id,
				Optional:       in.Optional,
				Yesterday:      in.Yesterday,
				Tomorrow:       in.Tomorrow,
			}); err != nil {
				return fmt.Errorf("register input link of [%s]: %w", tag, err)
			}
		}
	}

	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := slices.KeysOf(m)
	sort.Strings(keys)
	return keys
}
