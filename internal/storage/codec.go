package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"rebias/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeCheckpoint(c model.BiasCheckpoint) ([]byte, error) {
	return json.Marshal(c)
}

func DecodeCheckpoint(data []byte) (model.BiasCheckpoint, error) {
	var checkpoint model.BiasCheckpoint
	if err := json.Unmarshal(data, &checkpoint); err != nil {
		return model.BiasCheckpoint{}, err
	}
	if err := checkVersion(checkpoint.VersionedRecord); err != nil {
		return model.BiasCheckpoint{}, err
	}
	return checkpoint, nil
}

func checkVersion(record model.VersionedRecord) error {
	if record.SchemaVersion != CurrentSchemaVersion || record.CodecVersion != CurrentCodecVersion {
		return fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, record.SchemaVersion, record.CodecVersion)
	}
	return nil
}

// StampVersions fills in the current schema/codec versions on a checkpoint
// about to be saved.
func StampVersions(c *model.BiasCheckpoint) {
	c.SchemaVersion = CurrentSchemaVersion
	c.CodecVersion = CurrentCodecVersion
}
