package db

import (
	"github.com/google/uuid"
	"github.com/vikstrous/dataloadgen"
)

type dataLoaderKey string

const (
	DataLoaderKeySnapshot dataLoaderKey = "snapshot_data_loader"
)

// dataLoader, ok := c.Get(string(db.DataLoaderKeySnapshot))
type SnapshotDataLoader struct {
	GetSnapshot *dataloadgen.Loader[uuid.UUID, *Snapshot]
}

func NewSnapshotDataLoader(dbWrapper SnapshotDBWrapper) *SnapshotDataLoader {
	return &SnapshotDataLoader{
		GetSnapshot: dataloadgen.NewMappedLoader(dbWrapper.DataLoaderGetSnapshots),
	}
}
