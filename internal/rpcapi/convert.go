package rpcapi

import (
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/BrandonDHaskell/Janus/internal/janus/store"
	"github.com/BrandonDHaskell/Janus/internal/janus/types"
)

// ── Attendee ─────────────────────────────────────────────────────────────────

func recordToStruct(rec types.AttendeeRecord) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"id":         string(rec.ID),
		"checked_in": rec.CheckedIn,
	})
}

// recordFromStruct rejects anything that is not exactly {id: string,
// checked_in: bool}.  A missing or non-boolean checked_in must never be
// read as "not admitted".
func recordFromStruct(st *structpb.Struct) (types.AttendeeRecord, error) {
	fields := st.GetFields()

	id, ok := fields["id"].GetKind().(*structpb.Value_StringValue)
	if !ok {
		return types.AttendeeRecord{}, &store.SchemaError{Field: "id", Reason: "missing or not a string"}
	}
	fp := types.Fingerprint(id.StringValue)
	if !fp.Valid() {
		return types.AttendeeRecord{}, &store.SchemaError{Field: "id", Reason: "is not a fingerprint"}
	}

	ci, ok := fields["checked_in"].GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return types.AttendeeRecord{}, &store.SchemaError{Field: "checked_in", Reason: "missing or not a boolean"}
	}

	return types.AttendeeRecord{ID: fp, CheckedIn: ci.BoolValue}, nil
}

// ── Admission event ──────────────────────────────────────────────────────────

func eventToStruct(ev store.AdmissionEvent) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"event_id":      ev.EventID,
		"station_id":    ev.StationID,
		"fingerprint":   string(ev.Fingerprint),
		"status":        string(ev.Status),
		"committed":     ev.Committed,
		"decided_at_ms": float64(ev.DecidedAt.UnixMilli()),
	})
}

func eventFromStruct(st *structpb.Struct) (store.AdmissionEvent, error) {
	fields := st.GetFields()

	str := func(name string) (string, error) {
		v, ok := fields[name].GetKind().(*structpb.Value_StringValue)
		if !ok {
			return "", &store.SchemaError{Field: name, Reason: "missing or not a string"}
		}
		return v.StringValue, nil
	}

	var ev store.AdmissionEvent
	var err error
	if ev.EventID, err = str("event_id"); err != nil {
		return ev, err
	}
	if ev.StationID, err = str("station_id"); err != nil {
		return ev, err
	}
	fp, err := str("fingerprint")
	if err != nil {
		return ev, err
	}
	ev.Fingerprint = types.Fingerprint(fp)
	status, err := str("status")
	if err != nil {
		return ev, err
	}
	ev.Status = types.Status(status)

	committed, ok := fields["committed"].GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return ev, &store.SchemaError{Field: "committed", Reason: "missing or not a boolean"}
	}
	ev.Committed = committed.BoolValue

	ms, ok := fields["decided_at_ms"].GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return ev, &store.SchemaError{Field: "decided_at_ms", Reason: "missing or not a number"}
	}
	ev.DecidedAt = time.UnixMilli(int64(ms.NumberValue)).UTC()

	return ev, nil
}
