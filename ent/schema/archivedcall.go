package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ArchivedCall holds the schema definition for the ArchivedCall entity:
// the durable-tier row a CallScheduleItem becomes once archive_old
// moves it out of the Atomic Store's Redis hot path.
type ArchivedCall struct {
	ent.Schema
}

// Fields of the ArchivedCall.
func (ArchivedCall) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("call_id").
			Unique().
			Immutable(),
		field.String("patient_id").
			Immutable(),
		field.String("call_type").
			Immutable(),
		field.Time("archived_at").
			Default(time.Now).
			Immutable(),
		field.Bytes("payload").
			Comment("JSON snapshot of the CallScheduleItem at archive time").
			Immutable(),
	}
}

// Indexes of the ArchivedCall.
func (ArchivedCall) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("patient_id"),
		index.Fields("archived_at"),
	}
}
