package bdgr

import (
	"fmt"

	"github.com/dgraph-io/badger"
	jsoniter "github.com/json-iterator/go"
	"github.com/keystone-scm/keystone/pkg/model"
)

func mapBranchError(err error) error {
	switch err {
	case nil:
		return nil
	case badger.ErrKeyNotFound:
		return model.ErrUnknownBranch
	default:
		return err
	}
}

func mapBranchItemError(value *badger.Item, err error) (model.Branch, error) {
	if err != nil {
		return model.Branch{}, mapBranchError(err)
	}

	data, err := value.ValueCopy(nil)
	if err != nil {
		return model.Branch{}, mapBranchError(err)
	}

	var result model.Branch
	if e := jsoniter.Unmarshal(data, &result); e != nil {
		return model.Branch{}, fmt.Errorf("json unmarshal failed: %v", e)
	}
	return result, nil
}

func mapCommitError(err error) error {
	switch err {
	case nil:
		return nil
	case badger.ErrKeyNotFound:
		return model.ErrCommitNotFound
	default:
		return err
	}
}

func mapCommitItemError(value *badger.Item, err error) (model.Commit, error) {
	if err != nil {
		return model.Commit{}, mapCommitError(err)
	}

	data, err := value.ValueCopy(nil)
	if err != nil {
		return model.Commit{}, mapCommitError(err)
	}

	var result model.Commit
	if e := jsoniter.Unmarshal(data, &result); e != nil {
		return model.Commit{}, fmt.Errorf("json unmarshal failed: %v", e)
	}
	return result, nil
}

func unmarshalLock(data []byte) (model.Lock, error) {
	var result model.Lock
	if e := jsoniter.Unmarshal(data, &result); e != nil {
		return model.Lock{}, fmt.Errorf("json unmarshal failed: %v", e)
	}
	return result, nil
}

func unmarshalPendingMerge(data []byte) (model.PendingMerge, error) {
	var result model.PendingMerge
	if e := jsoniter.Unmarshal(data, &result); e != nil {
		return model.PendingMerge{}, fmt.Errorf("json unmarshal failed: %v", e)
	}
	return result, nil
}
