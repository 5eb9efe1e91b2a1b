package storage

import (
	"encoding/json"
	"errors"

	"neurochord/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// EncodeAnalysis stamps the current versions onto the record and serializes
// it for storage.
func EncodeAnalysis(record model.AnalysisRecord) ([]byte, error) {
	record.SchemaVersion = CurrentSchemaVersion
	record.CodecVersion = CurrentCodecVersion
	return json.Marshal(record)
}

// DecodeAnalysis deserializes a stored record and rejects payloads written
// by an incompatible codec.
func DecodeAnalysis(data []byte) (model.AnalysisRecord, error) {
	var record model.AnalysisRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.AnalysisRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return model.AnalysisRecord{}, err
	}
	return record, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion > CurrentSchemaVersion || v.CodecVersion > CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
