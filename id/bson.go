package id

import (
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/x/bsonx/bsoncore"
)

// MarshalBSONValue implements bson.ValueMarshaler. IDs are stored as
// their string form so they stay readable in queries and indexes.
func (i ID) MarshalBSONValue() (byte, []byte, error) {
	return byte(bson.TypeString), bsoncore.AppendString(nil, i.String()), nil
}

// UnmarshalBSONValue implements bson.ValueUnmarshaler.
func (i *ID) UnmarshalBSONValue(t byte, data []byte) error {
	if t != byte(bson.TypeString) {
		return fmt.Errorf("id: cannot decode bson type %d into an ID", t)
	}

	s, _, ok := bsoncore.ReadString(data)
	if !ok {
		return fmt.Errorf("id: malformed bson string value")
	}
	if s == "" {
		*i = Nil
		return nil
	}

	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
