package datatypes

import (
	"time"

	"github.com/google/uuid"
)

// Value is one of the sixteen concrete value types below. The set is closed:
// the unexported method keeps other packages from adding variants.
type Value interface {
	Type() DataType
	sealed()
}

type (
	Byte        int8
	Short       int16
	Int         int32
	Long        int64
	UByte       uint8
	UShort      uint16
	UInt        uint32
	ULong       uint64
	ShortText   string
	Text        string
	LongText    string
	ShortBinary []byte
	Binary      []byte
	LongBinary  []byte
	// DateTime counts nanoseconds since the Unix epoch.
	DateTime int64
	UUID     uuid.UUID
)

func (Byte) Type() DataType        { return TypeByte }
func (Short) Type() DataType       { return TypeShort }
func (Int) Type() DataType         { return TypeInt }
func (Long) Type() DataType        { return TypeLong }
func (UByte) Type() DataType       { return TypeUByte }
func (UShort) Type() DataType      { return TypeUShort }
func (UInt) Type() DataType        { return TypeUInt }
func (ULong) Type() DataType       { return TypeULong }
func (ShortText) Type() DataType   { return TypeShortText }
func (Text) Type() DataType        { return TypeText }
func (LongText) Type() DataType    { return TypeLongText }
func (ShortBinary) Type() DataType { return TypeShortBinary }
func (Binary) Type() DataType      { return TypeBinary }
func (LongBinary) Type() DataType  { return TypeLongBinary }
func (DateTime) Type() DataType    { return TypeDateTime }
func (UUID) Type() DataType        { return TypeUUID }

func (Byte) sealed()        {}
func (Short) sealed()       {}
func (Int) sealed()         {}
func (Long) sealed()        {}
func (UByte) sealed()       {}
func (UShort) sealed()      {}
func (UInt) sealed()        {}
func (ULong) sealed()       {}
func (ShortText) sealed()   {}
func (Text) sealed()        {}
func (LongText) sealed()    {}
func (ShortBinary) sealed() {}
func (Binary) sealed()      {}
func (LongBinary) sealed()  {}
func (DateTime) sealed()    {}
func (UUID) sealed()        {}

// DateTimeOf converts t to a DateTime.
func DateTimeOf(t time.Time) DateTime { return DateTime(t.UnixNano()) }

// Time returns d as a UTC time.Time.
func (d DateTime) Time() time.Time { return time.Unix(0, int64(d)).UTC() }

// NewUUID returns a random (version 4) UUID value.
func NewUUID() UUID { return UUID(uuid.New()) }

func (u UUID) String() string { return uuid.UUID(u).String() }
