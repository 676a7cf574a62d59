package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// StringArray is a text[] on Postgres and a brace-encoded text column elsewhere.
type StringArray []string

func (a StringArray) Value() (driver.Value, error) {
	return pq.StringArray(a).Value()
}

func (a *StringArray) Scan(src interface{}) error {
	return (*pq.StringArray)(a).Scan(src)
}

func (StringArray) GormDataType() string {
	return "stringarray"
}

func (StringArray) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

// JSON is a raw JSON document: jsonb on Postgres, text elsewhere. A text
// column keeps scalar documents such as 42 or true as written; SQLite would
// coerce them to numbers in a JSON-typed column.
type JSON datatypes.JSON

func (j JSON) Value() (driver.Value, error) {
	return datatypes.JSON(j).Value()
}

func (j *JSON) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*j = nil
		return nil
	case []byte, string:
	case int64, float64, bool:
		// Rows written before the column was text.
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		src = raw
	default:
		return fmt.Errorf("scan JSON: unsupported type %T", src)
	}
	var doc datatypes.JSON
	if err := doc.Scan(src); err != nil {
		return err
	}
	*j = JSON(doc)
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	return datatypes.JSON(j).MarshalJSON()
}

func (j *JSON) UnmarshalJSON(b []byte) error {
	return (*datatypes.JSON)(j).UnmarshalJSON(b)
}

func (JSON) GormDataType() string {
	return "json"
}

func (JSON) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "jsonb"
	}
	return "text"
}
