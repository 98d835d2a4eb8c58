package process

import "github.com/opensdc/dbflow/pkg/domain/process/db"

type Interface interface {
	Database() db.Interface
}

type impl struct {
	database db.Interface
}

func New(database db.Interface) Interface {
	return &impl{database: database}
}

func (i *impl) Database() db.Interface {
	return i.database
}
