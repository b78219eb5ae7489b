package arff

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/pkg/errors"
)

const maxLineSize = 16 * 1024 * 1024

// ParseError reports a malformed line.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("arff: line %d: %s", e.Line, e.Msg)
}

func parseErrorf(line int, format string, args ...interface{}) error {
	return &ParseError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

type options struct {
	progress io.Writer
}

// Option configures ReadFile.
type Option func(*options)

// WithProgress draws a byte progress bar on w while the file is read.
func WithProgress(w io.Writer) Option {
	return func(o *options) { o.progress = w }
}

// ReadFile opens and parses the ARFF file at path.
func ReadFile(path string, opts ...Option) (*Relation, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "arff: open")
	}
	defer f.Close()

	var r io.Reader = f
	if o.progress != nil {
		info, err := f.Stat()
		if err != nil {
			return nil, errors.Wrap(err, "arff: stat")
		}
		bar := pb.New64(info.Size()).Set(pb.Bytes, true).SetWriter(o.progress).Start()
		defer bar.Finish()
		r = bar.NewProxyReader(f)
	}

	rel, err := Read(r)
	if err != nil {
		return nil, errors.Wrapf(err, "arff: %s", path)
	}
	return rel, nil
}

// Read parses an ARFF document.
func Read(r io.Reader) (*Relation, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)

	rel := &Relation{}
	inData := false
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}

		if !inData {
			keyword, rest := splitKeyword(line)
			switch strings.ToLower(keyword) {
			case "@relation":
				name, _, err := readToken(rest)
				if err != nil {
					return nil, parseErrorf(lineNo, "relation name: %v", err)
				}
				rel.Name = name
			case "@attribute":
				attr, err := parseAttribute(rest)
				if err != nil {
					return nil, parseErrorf(lineNo, "%v", err)
				}
				rel.Attributes = append(rel.Attributes, attr)
			case "@data":
				if len(rel.Attributes) == 0 {
					return nil, parseErrorf(lineNo, "@data before any @attribute")
				}
				inData = true
			default:
				return nil, parseErrorf(lineNo, "unexpected header line %q", keyword)
			}
			continue
		}

		var (
			row []Value
			err error
		)
		if strings.HasPrefix(line, "{") {
			row, err = parseSparseRow(line, rel.Attributes)
		} else {
			row, err = parseDenseRow(line, rel.Attributes)
		}
		if err != nil {
			return nil, parseErrorf(lineNo, "%v", err)
		}
		rel.Data = append(rel.Data, row)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "arff: read")
	}
	if !inData {
		return nil, errors.New("arff: missing @data section")
	}
	return rel, nil
}

func splitKeyword(line string) (string, string) {
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimSpace(line[i+1:])
}

func parseAttribute(decl string) (Attribute, error) {
	name, rest, err := readToken(decl)
	if err != nil {
		return Attribute{}, errors.Wrap(err, "attribute name")
	}
	if name == "" {
		return Attribute{}, errors.New("attribute without a name")
	}
	attr := Attribute{Name: name}

	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, "{") {
		end := strings.LastIndex(rest, "}")
		if end < 0 {
			return Attribute{}, errors.Errorf("attribute %q: unterminated nominal domain", name)
		}
		values, err := splitFields(rest[1:end], ',')
		if err != nil {
			return Attribute{}, errors.Wrapf(err, "attribute %q", name)
		}
		attr.Kind = Nominal
		attr.Values = values
		return attr, nil
	}

	typ, format := splitKeyword(rest)
	switch strings.ToLower(typ) {
	case "numeric", "real", "integer":
		attr.Kind = Numeric
	case "string":
		attr.Kind = String
	case "date":
		attr.Kind = Date
		if format != "" {
			f, _, err := readToken(format)
			if err != nil {
				return Attribute{}, errors.Wrapf(err, "attribute %q date format", name)
			}
			attr.DateFormat = f
		}
	case "relational":
		return Attribute{}, errors.Errorf("attribute %q: relational attributes are not supported", name)
	default:
		return Attribute{}, errors.Errorf("attribute %q: unknown type %q", name, typ)
	}
	return attr, nil
}

func parseDenseRow(line string, attrs []Attribute) ([]Value, error) {
	fields, err := splitRaw(line, ',')
	if err != nil {
		return nil, err
	}
	if len(fields) != len(attrs) {
		return nil, errors.Errorf("row has %d values, header declares %d attributes", len(fields), len(attrs))
	}
	row := make([]Value, len(attrs))
	for i, field := range fields {
		v, err := parseValue(field, attrs[i])
		if err != nil {
			return nil, err
		}
		row[i] = v
	}
	return row, nil
}

func parseSparseRow(line string, attrs []Attribute) ([]Value, error) {
	if !strings.HasSuffix(line, "}") {
		return nil, errors.New("unterminated sparse row")
	}
	row := make([]Value, len(attrs))
	for i, a := range attrs {
		row[i] = a.zero()
	}

	body := strings.TrimSpace(line[1 : len(line)-1])
	if body == "" {
		return row, nil
	}
	entries, err := splitRaw(body, ',')
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		idxStr, raw := splitKeyword(entry)
		idx, err := strconv.Atoi(idxStr)
		if err != nil {
			return nil, errors.Errorf("sparse entry %q: bad index", entry)
		}
		if idx < 0 || idx >= len(attrs) {
			return nil, errors.Errorf("sparse entry %q: index out of range [0,%d)", entry, len(attrs))
		}
		v, err := parseValue(raw, attrs[idx])
		if err != nil {
			return nil, errors.Wrapf(err, "sparse entry %q", entry)
		}
		row[idx] = v
	}
	return row, nil
}

// parseValue converts one field as it appears in the file. Only a bare ? is
// missing; '?' is the literal string.
func parseValue(raw string, attr Attribute) (Value, error) {
	raw = strings.TrimSpace(raw)
	if raw == "?" {
		return MissingValue(), nil
	}
	s, err := unquote(raw)
	if err != nil {
		return Value{}, errors.Wrapf(err, "attribute %q", attr.Name)
	}
	switch attr.Kind {
	case Numeric:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, errors.Errorf("attribute %q: %q is not numeric", attr.Name, s)
		}
		return Value{Num: f}, nil
	case Nominal:
		i := attr.Index(s)
		if i < 0 {
			return Value{}, errors.Errorf("attribute %q: %q is not one of %v", attr.Name, s, attr.Values)
		}
		return Value{Num: float64(i), Str: s, Text: true}, nil
	}
	return Value{Str: s, Text: true}, nil
}
