package zarr

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Dtype is a zarr data type, written as a NumPy array protocol type string
// (typestr). A typestr has three parts:
//
//   - One character giving the byte order: "<" little-endian, ">" big-endian,
//     "|" not relevant.
//   - One character code giving the basic type: "b" boolean, "i" integer,
//     "u" unsigned integer, "f" floating point, "c" complex floating point,
//     "m" timedelta, "M" datetime, "S" fixed-length bytes, "U" fixed-length
//     unicode, "V" raw fixed-size memory, "O" object (in memory only, never
//     stored).
//   - An integer giving the number of bytes the type uses.
//
// Datetime and timedelta types carry a unit suffix such as "[ns]". Within the
// zarr format the byte order must be specified.
type Dtype struct {
	ByteOrder ByteOrder
	BasicType BasicType
	ByteSize  int
	Units     string
}

var (
	_ json.Unmarshaler = (*Dtype)(nil)
	_ json.Marshaler   = (*Dtype)(nil)
)

// dtypes of the in-memory element kinds Values can hold
var (
	DtypeBool     = Dtype{ByteOrder: BONotRelevant, BasicType: BTBoolean, ByteSize: 1}
	DtypeInt64    = Dtype{ByteOrder: BOLittleEndian, BasicType: BTInteger, ByteSize: 8}
	DtypeUint64   = Dtype{ByteOrder: BOLittleEndian, BasicType: BTUnsigned, ByteSize: 8}
	DtypeFloat64  = Dtype{ByteOrder: BOLittleEndian, BasicType: BTFloatingPoint, ByteSize: 8}
	DtypeDatetime = Dtype{ByteOrder: BOLittleEndian, BasicType: BTDatetime, ByteSize: 8, Units: "[ns]"}
	DtypeObject   = Dtype{ByteOrder: BONotRelevant, BasicType: BTObject}
)

func ParseDtype(s string) (dt Dtype, err error) {
	// bug in python implementation uses HTML escape sequences when serializaing JSON
	s = strings.Replace(s, "&lt;", "<", 1)
	s = strings.Replace(s, "&gt;", ">", 1)

	if s == DtypeObject.String() {
		return DtypeObject, nil
	}
	if len(s) < 3 {
		return dt, errors.Errorf("invalid Dtype string. %q is too short", s)
	}

	boByte, s := s[0], s[1:]
	dt.ByteOrder, err = ParseByteOrder(rune(boByte))
	if err != nil {
		return dt, err
	}

	typeByte, s := s[0], s[1:]
	dt.BasicType, err = ParseBasicType(rune(typeByte))
	if err != nil {
		return dt, err
	}

	sizeStr := s
	if i := strings.IndexByte(s, '['); i >= 0 {
		sizeStr, dt.Units = s[:i], s[i:]
	}

	size, err := strconv.ParseInt(sizeStr, 10, 0)
	if err != nil {
		return dt, errors.Wrapf(err, "invalid Dtype size %q", sizeStr)
	}
	dt.ByteSize = int(size)

	if dt.Units != "" {
		if _, err := dt.TimeUnit(); err != nil {
			return dt, err
		}
	}

	return dt, nil
}

func (dt Dtype) String() string {
	if dt.BasicType == BTObject {
		return string(dt.ByteOrder) + string(dt.BasicType)
	}
	s := string(dt.ByteOrder) + string(dt.BasicType) + strconv.Itoa(dt.ByteSize)
	if dt.Units != "" {
		s += dt.Units
	}
	return s
}

// IsFloat reports whether elements of this type are floating point numbers
func (dt Dtype) IsFloat() bool { return dt.BasicType == BTFloatingPoint }

// IsDatetime reports whether elements of this type are datetime64 values
func (dt Dtype) IsDatetime() bool { return dt.BasicType == BTDatetime }

// TimeUnit gives the duration of one tick of a datetime64 type. Missing units
// default to nanoseconds.
func (dt Dtype) TimeUnit() (time.Duration, error) {
	switch strings.Trim(dt.Units, "[]") {
	case "", "ns":
		return time.Nanosecond, nil
	case "us":
		return time.Microsecond, nil
	case "ms":
		return time.Millisecond, nil
	case "s":
		return time.Second, nil
	case "m":
		return time.Minute, nil
	case "h":
		return time.Hour, nil
	case "D":
		return 24 * time.Hour, nil
	default:
		return 0, errors.Errorf("unsupported datetime unit %q", dt.Units)
	}
}

// MarshalJSON writes the typestr without HTML escaping. Dtype strings are
// plain ASCII.
func (dt Dtype) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(dt.String())), nil
}

func (dt *Dtype) UnmarshalJSON(d []byte) error {
	var s string
	if err := json.Unmarshal(d, &s); err != nil {
		return errors.Wrap(err, "structured dtypes are not supported")
	}
	t, err := ParseDtype(s)
	if err != nil {
		return err
	}

	*dt = t
	return nil
}

type ByteOrder rune

func ParseByteOrder(r rune) (ByteOrder, error) {
	o := ByteOrder(r)
	if _, ok := byteOrders[o]; !ok {
		return o, errors.Errorf("unsupported byte order format: %q", r)
	}
	return o, nil
}

const (
	BONotRelevant  ByteOrder = '|'
	BOLittleEndian ByteOrder = '<'
	BOBigEndian    ByteOrder = '>'
)

var byteOrders = map[ByteOrder]struct{}{
	BONotRelevant:  {},
	BOLittleEndian: {},
	BOBigEndian:    {},
}

type BasicType rune

func ParseBasicType(r rune) (BasicType, error) {
	t := BasicType(r)
	if _, ok := supportedBasicTypes[t]; !ok {
		return t, errors.Errorf("unsupported basic type: %q", r)
	}
	return t, nil
}

func (bt BasicType) Human() string {
	return supportedBasicTypes[bt]
}

const (
	BTBoolean       BasicType = 'b'
	BTInteger       BasicType = 'i'
	BTUnsigned      BasicType = 'u'
	BTFloatingPoint BasicType = 'f'
	BTComplex       BasicType = 'c'
	BTTimedelta     BasicType = 'm'
	BTDatetime      BasicType = 'M'
	BTString        BasicType = 'S'
	BTUnicode       BasicType = 'U'
	BTOther         BasicType = 'V'
	BTObject        BasicType = 'O'
)

var supportedBasicTypes = map[BasicType]string{
	BTBoolean:       "bool",
	BTInteger:       "int",
	BTUnsigned:      "uint",
	BTFloatingPoint: "float",
	BTComplex:       "complex",
	BTTimedelta:     "timedelta",
	BTDatetime:      "datetime",
	BTString:        "string",
	BTUnicode:       "unicode",
	BTOther:         "other",
	BTObject:        "object",
}
