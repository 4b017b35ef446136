package lstore

import (
	"errors"

	"github.com/ValentinKolb/mKV/lib/db"
	"github.com/ValentinKolb/mKV/lib/store"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("store")

type storeImpl struct {
	db db.KVDB
}

// NewLocalStore creates a new local store instance on top of the database
// returned by factory.
// This store implementation is not distributed and only works on a single node.
func NewLocalStore(factory store.DBFactory) (store.IStore, error) {
	database, err := factory()
	if err != nil {
		log.Errorf("failed to create database: %v", err)
		return nil, store.NewError(store.RetCInternalError, err.Error())
	}
	return &storeImpl{db: database}, nil
}

// wrapErr converts engine errors into store errors.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, db.ErrClosed) {
		return store.NewError(store.RetCInvalidOperation, err.Error())
	}
	log.Warningf("engine error: %v", err)
	return store.NewError(store.RetCInternalError, err.Error())
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Set(key string, value []byte) error {
	if !s.db.SupportsFeature(db.FeatureSet) {
		return store.NewError(store.RetCUnsupportedOperation, "Set operation is not supported")
	}
	return wrapErr(s.db.Set(key, value))
}

func (s *storeImpl) Delete(key string) error {
	if !s.db.SupportsFeature(db.FeatureDelete) {
		return store.NewError(store.RetCUnsupportedOperation, "Delete operation is not supported")
	}
	return wrapErr(s.db.Delete(key))
}

func (s *storeImpl) Get(key string) ([]byte, bool, error) {
	if !s.db.SupportsFeature(db.FeatureGet) {
		return nil, false, store.NewError(store.RetCUnsupportedOperation, "Get operation is not supported")
	}
	val, ok, err := s.db.Get(key)
	return val, ok, wrapErr(err)
}

func (s *storeImpl) Has(key string) (bool, error) {
	if !s.db.SupportsFeature(db.FeatureHas) {
		return false, store.NewError(store.RetCUnsupportedOperation, "Has operation is not supported")
	}
	ok, err := s.db.Has(key)
	return ok, wrapErr(err)
}

func (s *storeImpl) Keys() ([]string, error) {
	if !s.db.SupportsFeature(db.FeatureKeys) {
		return nil, store.NewError(store.RetCUnsupportedOperation, "Keys operation is not supported")
	}
	keys, err := s.db.Keys()
	return keys, wrapErr(err)
}

func (s *storeImpl) GetDBInfo() (db.DatabaseInfo, error) {
	return s.db.GetInfo(), nil
}

func (s *storeImpl) Close() error {
	return wrapErr(s.db.Close())
}
