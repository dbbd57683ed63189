package ckd

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

var testSchema = Schema{
	Features: []Feature{
		{Name: "age", Kind: Numeric},
		{Name: "color", Kind: Categorical},
	},
	Target: "ckd_label",
}

const testCSV = "\ufeffid,age,color,ckd_label\n" +
	"1,50,red,ckd\n" +
	"2,?,blue,notckd\n" +
	"3,40, ,ckd\n" +
	"4,30,red,notckd\n"

// ckdCSV returns a csv source with n records of which the first npos
// are positive.  Positive records are older than negative records.
func ckdCSV(n, npos int) string {
	var b strings.Builder
	b.WriteString("id,age,color,ckd_label\n")
	colors := []string{"red", "green", "blue"}
	for i := 0; i < n; i++ {
		age, label := 20+i%40, 0
		if i < npos {
			age, label = 70+i%20, 1
		}
		fmt.Fprintf(&b, "%d,%d,%s,%d\n", i+1, age, colors[i%len(colors)], label)
	}
	return b.String()
}

func TestLoaderRead(t *testing.T) {
	for _, tc := range []struct {
		name     string
		positive string
		classes  [2]string
		labels   []int
	}{
		{"sorted", "", [2]string{"ckd", "notckd"}, []int{0, 1, 0, 1}},
		{"positive", "ckd", [2]string{"notckd", "ckd"}, []int{1, 0, 1, 0}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := testSchema
			s.Positive = tc.positive
			ds, err := Loader{Schema: s}.Read(strings.NewReader(testCSV))
			if err != nil {
				t.Fatalf("got error: %v", err)
			}
			if got := ds.Classes; got != tc.classes {
				t.Fatalf("expected classes %v; got %v", tc.classes, got)
			}
			if got := ds.Labels(); !reflect.DeepEqual(got, tc.labels) {
				t.Fatalf("expected labels %v; got %v", tc.labels, got)
			}
			want := [][]Value{
				{Num(50), Cat("red")},
				{Missing, Cat("blue")},
				{Num(40), Missing},
				{Num(30), Cat("red")},
			}
			for i := range want {
				if got := ds.Row(i); !reflect.DeepEqual(got, want[i]) {
					t.Fatalf("expected row %d = %v; got %v", i, want[i], got)
				}
			}
		})
	}
}

func TestLoaderErrors(t *testing.T) {
	for _, tc := range []struct {
		name, data string
		want       error
	}{
		{"missing column", "age,ckd_label\n1,0\n2,1\n", ErrSchemaMismatch},
		{"missing target column", "age,color\n1,red\n", ErrSchemaMismatch},
		{"empty", "", ErrSchemaMismatch},
		{"bad number", "age,color,ckd_label\n1,red,0\nabc,red,1\n", ErrMalformedRecord},
		{"missing target", "age,color,ckd_label\n1,red,0\n2,red,?\n", ErrMalformedRecord},
		{"field count", "age,color,ckd_label\n1,red,0\n2,red\n", ErrMalformedRecord},
		{"no records", "age,color,ckd_label\n", ErrMalformedRecord},
		{"three classes", "age,color,ckd_label\n1,a,x\n2,b,y\n3,c,z\n", ErrMalformedRecord},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Loader{Schema: testSchema}.Read(strings.NewReader(tc.data))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v; got %v", tc.want, err)
			}
		})
	}
}

func TestLoaderClasses(t *testing.T) {
	data := "age,color,ckd_label\n1,red,yes\n2,red,no\n"
	ds, err := Loader{Schema: testSchema, Classes: []string{"no", "yes"}}.
		Read(strings.NewReader(data))
	if err != nil {
		t.Fatalf("got error: %v", err)
	}
	if got, want := ds.Labels(), []int{1, 0}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v; got %v", want, got)
	}
	_, err = Loader{Schema: testSchema, Classes: []string{"no", "yes"}}.
		Read(strings.NewReader("age,color,ckd_label\n1,red,maybe\n"))
	if !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("expected %v; got %v", ErrMalformedRecord, err)
	}
}

func TestLoaderMissingSentinels(t *testing.T) {
	data := "age,color,ckd_label\nNA,red,0\n3,NA,1\n"
	ds, err := Loader{Schema: testSchema, Missing: []string{"NA"}}.Read(strings.NewReader(data))
	if err != nil {
		t.Fatalf("got error: %v", err)
	}
	if got := ds.Row(0)[0]; !got.Missing {
		t.Fatalf("expected missing value; got %v", got)
	}
	if got := ds.Row(1)[1]; !got.Missing {
		t.Fatalf("expected missing value; got %v", got)
	}
}

func TestLoadUnavailable(t *testing.T) {
	_, err := Loader{Schema: testSchema}.Load(filepath.Join(t.TempDir(), "none.csv"))
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected %v; got %v", ErrSourceUnavailable, err)
	}
}

func TestResolveLabels(t *testing.T) {
	for _, tc := range []struct {
		targets  []string
		positive string
		classes  [2]string
		labels   []int
	}{
		{[]string{"1", "0", "1.0"}, "", [2]string{"0", "1"}, []int{1, 0, 1}},
		{[]string{"1", "1"}, "", [2]string{"0", "1"}, []int{1, 1}},
		{[]string{"1.0", "0", "-0", "1"}, "", [2]string{"0", "1"}, []int{1, 0, 0, 1}},
		{[]string{"2", "3.0", "3"}, "", [2]string{"2", "3"}, []int{0, 1, 1}},
		{[]string{"b", "a"}, "", [2]string{"a", "b"}, []int{1, 0}},
		{[]string{"b", "a"}, "a", [2]string{"b", "a"}, []int{0, 1}},
		{[]string{"0", "1"}, "0", [2]string{"1", "0"}, []int{1, 0}},
	} {
		t.Run(strings.Join(tc.targets, ","), func(t *testing.T) {
			labels, classes, err := resolveLabels(tc.targets, tc.positive, nil)
			if err != nil {
				t.Fatalf("got error: %v", err)
			}
			if classes != tc.classes {
				t.Fatalf("expected classes %v; got %v", tc.classes, classes)
			}
			if !reflect.DeepEqual(labels, tc.labels) {
				t.Fatalf("expected labels %v; got %v", tc.labels, labels)
			}
		})
	}
}

func TestLoaderNumericTargetSpellings(t *testing.T) {
	data := "age,color,ckd_label\n1,a,1\n2,b,0\n3,a,1.0\n4,b,0.0\n"
	ds, err := Loader{Schema: testSchema}.Read(strings.NewReader(data))
	if err != nil {
		t.Fatalf("got error: %v", err)
	}
	if want := [2]string{"0", "1"}; ds.Classes != want {
		t.Fatalf("expected classes %v; got %v", want, ds.Classes)
	}
	if want := []int{1, 0, 1, 0}; !reflect.DeepEqual(ds.Labels(), want) {
		t.Fatalf("expected labels %v; got %v", want, ds.Labels())
	}
}

func TestNewDataset(t *testing.T) {
	rows := [][]Value{{Num(1), Cat("a")}, {Num(2), Cat("b")}}
	ds, err := NewDataset(testSchema, [2]string{"0", "1"}, rows, []int{0, 1})
	if err != nil {
		t.Fatalf("got error: %v", err)
	}
	rows[0][0] = Num(42)
	if got := ds.Row(0)[0]; got != Num(1) {
		t.Fatalf("expected dataset to be a copy; got %v", got)
	}
	if _, err := NewDataset(testSchema, [2]string{}, rows, []int{0}); !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("expected %v; got %v", ErrMalformedRecord, err)
	}
	if _, err := NewDataset(testSchema, [2]string{}, rows, []int{0, 2}); !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("expected %v; got %v", ErrMalformedRecord, err)
	}
}

func TestInferSchema(t *testing.T) {
	s, err := InferSchema(strings.NewReader(testCSV), "ckd_label", nil)
	if err != nil {
		t.Fatalf("got error: %v", err)
	}
	if !s.Equal(testSchema) {
		t.Fatalf("expected %v; got %v", testSchema, s)
	}
	if _, err := InferSchema(strings.NewReader(testCSV), "class", nil); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected %v; got %v", ErrSchemaMismatch, err)
	}
}

func TestSchemaValidate(t *testing.T) {
	for _, tc := range []struct {
		name string
		s    Schema
		ok   bool
	}{
		{"ok", testSchema, true},
		{"no target", Schema{Features: testSchema.Features}, false},
		{"no features", Schema{Target: "x"}, false},
		{"target feature", Schema{Features: []Feature{{Name: "x"}}, Target: "x"}, false},
		{"duplicate", Schema{Features: []Feature{{Name: "a"}, {Name: "a"}}, Target: "x"}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.s.Validate()
			if tc.ok && err != nil {
				t.Fatalf("got error: %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected %v; got %v", ErrInvalidConfig, err)
			}
		})
	}
}

func TestKindText(t *testing.T) {
	for _, tc := range []struct {
		text string
		want Kind
	}{
		{"numeric", Numeric}, {"num", Numeric}, {"Categorical", Categorical}, {"cat", Categorical},
	} {
		t.Run(tc.text, func(t *testing.T) {
			var k Kind
			if err := k.UnmarshalText([]byte(tc.text)); err != nil {
				t.Fatalf("got error: %v", err)
			}
			if k != tc.want {
				t.Fatalf("expected %s; got %s", tc.want, k)
			}
		})
	}
	var k Kind
	if err := k.UnmarshalText([]byte("bool")); err == nil {
		t.Fatalf("expected an error")
	}
}

func TestLoaderReadRows(t *testing.T) {
	rows, err := Loader{Schema: testSchema}.ReadRows(strings.NewReader("color,age\nred,3\n?,4\n"))
	if err != nil {
		t.Fatalf("got error: %v", err)
	}
	want := [][]Value{{Num(3), Cat("red")}, {Num(4), Missing}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("expected %v; got %v", want, rows)
	}
	if _, err := (Loader{Schema: testSchema}).ReadRows(strings.NewReader("age\n3\n")); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected %v; got %v", ErrSchemaMismatch, err)
	}
}
