package ckd

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

// DefaultMissing lists the default missing value sentinels.
var DefaultMissing = []string{"?", ""}

// Value is a single typed cell of a record.
type Value struct {
	Num     float64
	Cat     string
	Missing bool
}

// Num returns a numeric value.
func Num(f float64) Value { return Value{Num: f} }

// Cat returns a categorical value.
func Cat(s string) Value { return Value{Cat: s} }

// Missing is the missing value.
var Missing = Value{Missing: true}

func (v Value) String() string {
	switch {
	case v.Missing:
		return "<missing>"
	case v.Cat != "":
		return v.Cat
	default:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	}
}

// Dataset is an immutable list of records with binary labels.  The
// values of each record are aligned with the features of the schema.
// Classes holds the raw target values of label 0 and label 1.
type Dataset struct {
	Schema  Schema
	Classes [2]string
	rows    [][]Value
	labels  []int
}

// NewDataset creates a new dataset.  The rows and labels are copied.
func NewDataset(s Schema, classes [2]string, rows [][]Value, labels []int) (Dataset, error) {
	if len(rows) != len(labels) {
		return Dataset{}, fmt.Errorf("newDataset: %d rows but %d labels: %w",
			len(rows), len(labels), ErrMalformedRecord)
	}
	ds := Dataset{
		Schema:  s,
		Classes: classes,
		rows:    make([][]Value, len(rows)),
		labels:  make([]int, len(labels)),
	}
	for i := range rows {
		if len(rows[i]) != len(s.Features) {
			return Dataset{}, fmt.Errorf("newDataset: record %d: %d values for %d features: %w",
				i, len(rows[i]), len(s.Features), ErrMalformedRecord)
		}
		if labels[i] != 0 && labels[i] != 1 {
			return Dataset{}, fmt.Errorf("newDataset: record %d: bad label %d: %w",
				i, labels[i], ErrMalformedRecord)
		}
		ds.rows[i] = append([]Value(nil), rows[i]...)
	}
	copy(ds.labels, labels)
	return ds, nil
}

// Len returns the number of records.
func (ds Dataset) Len() int { return len(ds.rows) }

// Row returns a copy of the i-th record.
func (ds Dataset) Row(i int) []Value { return append([]Value(nil), ds.rows[i]...) }

// Label returns the label of the i-th record.
func (ds Dataset) Label(i int) int { return ds.labels[i] }

// Labels returns a copy of the labels.
func (ds Dataset) Labels() []int { return append([]int(nil), ds.labels...) }

// Counts returns the number of records with label 0 and label 1.
func (ds Dataset) Counts() [2]int {
	var ret [2]int
	for _, l := range ds.labels {
		ret[l]++
	}
	return ret
}

// Subset returns a new dataset holding the records at the given
// indices in the given order.
func (ds Dataset) Subset(idx []int) Dataset {
	ret := Dataset{
		Schema:  ds.Schema,
		Classes: ds.Classes,
		rows:    make([][]Value, len(idx)),
		labels:  make([]int, len(idx)),
	}
	for i, j := range idx {
		ret.rows[i] = ds.rows[j]
		ret.labels[i] = ds.labels[j]
	}
	return ret
}

// Loader reads csv files with a header row into datasets.  Cells
// matching one of the Missing sentinels (after trimming white space)
// are marked missing.  If Classes is set, the target values must match
// one of the two given classes [negative, positive]; otherwise the
// classes are resolved from the data.
type Loader struct {
	Schema  Schema
	Missing []string
	Classes []string
}

// Load reads the dataset from the given path.
func (l Loader) Load(path string) (Dataset, error) {
	in, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("load %s: %v: %w", path, err, ErrSourceUnavailable)
	}
	defer in.Close()
	ds, err := l.Read(in)
	if err != nil {
		return Dataset{}, fmt.Errorf("load %s: %w", path, err)
	}
	return ds, nil
}

// Read reads the dataset from the given reader.
func (l Loader) Read(r io.Reader) (Dataset, error) {
	rows, targets, err := l.read(r, true)
	if err != nil {
		return Dataset{}, fmt.Errorf("read: %w", err)
	}
	ds := Dataset{Schema: l.Schema, rows: rows}
	ds.labels, ds.Classes, err = resolveLabels(targets, l.Schema.Positive, l.Classes)
	if err != nil {
		return Dataset{}, fmt.Errorf("read: %w", err)
	}
	return ds, nil
}

// ReadRows reads unlabeled records from the given reader.  The target
// column is not required.
func (l Loader) ReadRows(r io.Reader) ([][]Value, error) {
	rows, _, err := l.read(r, false)
	if err != nil {
		return nil, fmt.Errorf("readRows: %w", err)
	}
	return rows, nil
}

func (l Loader) read(r io.Reader, labeled bool) ([][]Value, []string, error) {
	if err := l.Schema.Validate(); err != nil {
		return nil, nil, err
	}
	missing := l.Missing
	if len(missing) == 0 {
		missing = DefaultMissing
	}
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("no header: %w", ErrSchemaMismatch)
	}
	if err != nil {
		return nil, nil, readErr(err)
	}
	names := l.Schema.Names()
	if labeled {
		names = append(names, l.Schema.Target)
	}
	cols, err := columns(cleanHeader(header), names)
	if err != nil {
		return nil, nil, err
	}
	var rows [][]Value
	var targets []string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, readErr(err)
		}
		line, _ := cr.FieldPos(0)
		row := make([]Value, len(l.Schema.Features))
		for i, f := range l.Schema.Features {
			v, err := parseValue(record[cols[i]], f.Kind, missing)
			if err != nil {
				return nil, nil, fmt.Errorf("line %d: column %s: %v: %w",
					line, f.Name, err, ErrMalformedRecord)
			}
			row[i] = v
		}
		if labeled {
			target := strings.TrimSpace(record[cols[len(cols)-1]])
			if isMissing(target, missing) {
				return nil, nil, fmt.Errorf("line %d: missing target %s: %w",
					line, l.Schema.Target, ErrMalformedRecord)
			}
			targets = append(targets, target)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("no records: %w", ErrMalformedRecord)
	}
	return rows, targets, nil
}

// columns returns the indices of the named columns in the header.
func columns(header []string, names []string) ([]int, error) {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[name] = i
	}
	ret := make([]int, 0, len(names))
	for _, name := range names {
		i, ok := pos[name]
		if !ok {
			return nil, fmt.Errorf("missing column %s: %w", name, ErrSchemaMismatch)
		}
		ret = append(ret, i)
	}
	return ret, nil
}

func cleanHeader(header []string) []string {
	ret := make([]string, len(header))
	for i := range header {
		ret[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	return ret
}

func parseValue(cell string, kind Kind, missing []string) (Value, error) {
	cell = strings.TrimSpace(cell)
	if isMissing(cell, missing) {
		return Missing, nil
	}
	if kind == Categorical {
		return Cat(cell), nil
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, fmt.Errorf("not a number: %q", cell)
	}
	return Num(f), nil
}

func isMissing(cell string, missing []string) bool {
	for _, m := range missing {
		if cell == m {
			return true
		}
	}
	return false
}

// readErr classifies csv errors.  Parse errors are malformed records;
// everything else means the source could not be read.
func readErr(err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return fmt.Errorf("%v: %w", err, ErrMalformedRecord)
	}
	return fmt.Errorf("%v: %w", err, ErrSourceUnavailable)
}

// resolveLabels maps the raw target values to 0 and 1.  Known classes
// take precedence over the positive value, which takes precedence
// over numeric 0/1 targets.  Otherwise the sorted distinct values are
// mapped to 0 and 1.
func resolveLabels(targets []string, positive string, known []string) ([]int, [2]string, error) {
	var classes [2]string
	switch {
	case len(known) == 2:
		classes = [2]string{known[0], known[1]}
	case len(known) != 0:
		return nil, classes, fmt.Errorf("bad number of classes: %d: %w", len(known), ErrMalformedRecord)
	default:
		distinct := distinctValues(targets)
		if len(distinct) > 2 {
			return nil, classes, fmt.Errorf("target is not binary: %v: %w", distinct, ErrMalformedRecord)
		}
		var err error
		if classes, err = inferClasses(distinct, positive); err != nil {
			return nil, classes, err
		}
	}
	labels := make([]int, len(targets))
	for i, t := range targets {
		switch {
		case sameLabel(t, classes[1]):
			labels[i] = 1
		case sameLabel(t, classes[0]):
			labels[i] = 0
		default:
			return nil, classes, fmt.Errorf("record %d: unknown target value %q: %w",
				i+1, t, ErrMalformedRecord)
		}
	}
	return labels, classes, nil
}

func inferClasses(distinct []string, positive string) ([2]string, error) {
	if positive != "" {
		var classes [2]string
		classes[1] = positive
		found := false
		for _, d := range distinct {
			if sameLabel(d, positive) {
				found = true
			} else {
				classes[0] = d
			}
		}
		if !found && len(distinct) == 2 {
			return classes, fmt.Errorf("positive class %q not found in %v: %w",
				positive, distinct, ErrMalformedRecord)
		}
		return classes, nil
	}
	numeric := true
	for _, d := range distinct {
		if !sameLabel(d, "0") && !sameLabel(d, "1") {
			numeric = false
		}
	}
	if numeric {
		return [2]string{"0", "1"}, nil
	}
	if len(distinct) == 1 {
		return [2]string{distinct[0], ""}, nil
	}
	return [2]string{distinct[0], distinct[1]}, nil
}

// distinctValues returns the sorted distinct target values.  Numeric
// values are compared by value and returned in their shortest form.
func distinctValues(xs []string) []string {
	set := make(map[string]bool)
	for _, x := range xs {
		set[labelKey(x)] = true
	}
	ret := make([]string, 0, len(set))
	for x := range set {
		ret = append(ret, x)
	}
	sort.Strings(ret)
	return ret
}

func labelKey(x string) string {
	if f, err := strconv.ParseFloat(x, 64); err == nil {
		return strconv.FormatFloat(f+0, 'g', -1, 64) // -0 is 0
	}
	return x
}

// sameLabel compares two target values.  Numeric values compare by
// value, so "1" and "1.0" denote the same class.
func sameLabel(a, b string) bool {
	if a == b {
		return true
	}
	fa, erra := strconv.ParseFloat(a, 64)
	fb, errb := strconv.ParseFloat(b, 64)
	return erra == nil && errb == nil && fa == fb
}
