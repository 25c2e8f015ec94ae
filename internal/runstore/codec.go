package runstore

import (
	"encoding/json"
	"fmt"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

// stamp fills in the current schema/codec version, overwriting whatever the
// caller set.
func stamp(v VersionedRecord) VersionedRecord {
	v.SchemaVersion = CurrentSchemaVersion
	v.CodecVersion = CurrentCodecVersion
	return v
}

func checkVersion(v VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion {
		return fmt.Errorf("runstore: schema version %d, want %d", v.SchemaVersion, CurrentSchemaVersion)
	}
	if v.CodecVersion != CurrentCodecVersion {
		return fmt.Errorf("runstore: codec version %d, want %d", v.CodecVersion, CurrentCodecVersion)
	}
	return nil
}

// EncodeRun serializes a RunRecord for storage, stamping current versions.
func EncodeRun(r RunRecord) ([]byte, error) {
	r.VersionedRecord = stamp(r.VersionedRecord)
	return json.Marshal(r)
}

// DecodeRun deserializes a RunRecord and validates its version stamp.
func DecodeRun(data []byte) (RunRecord, error) {
	var r RunRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return RunRecord{}, err
	}
	if err := checkVersion(r.VersionedRecord); err != nil {
		return RunRecord{}, err
	}
	return r, nil
}

// EncodeSweep serializes a SweepRecord for storage, stamping current versions.
func EncodeSweep(s SweepRecord) ([]byte, error) {
	s.VersionedRecord = stamp(s.VersionedRecord)
	return json.Marshal(s)
}

// DecodeSweep deserializes a SweepRecord and validates its version stamp.
func DecodeSweep(data []byte) (SweepRecord, error) {
	var s SweepRecord
	if err := json.Unmarshal(data, &s); err != nil {
		return SweepRecord{}, err
	}
	if err := checkVersion(s.VersionedRecord); err != nil {
		return SweepRecord{}, err
	}
	return s, nil
}
