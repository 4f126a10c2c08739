package dataset

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/zpam/phish-filter/pkg/learning"
)

const sampleCSV = `subject,body,label
"URGENT: Verify Your Account","Click here, now.",phishing
Team Meeting Tomorrow,Please review the agenda.,legitimate
`

func TestReadCSV(t *testing.T) {
	examples, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if len(examples) != 2 {
		t.Fatalf("expected 2 examples, got %d", len(examples))
	}
	if examples[0].Body != "Click here, now." || examples[0].Label != learning.Phishing {
		t.Errorf("unexpected first example %+v", examples[0])
	}
	if examples[1].Label != learning.Legitimate {
		t.Errorf("unexpected second example %+v", examples[1])
	}
}

func TestReadCSVColumnOrder(t *testing.T) {
	data := "label,body,subject,extra\nPhishing,claim your prize,Winner,x\n"
	examples, err := ReadCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	want := []learning.Example{{Subject: "Winner", Body: "claim your prize", Label: learning.Phishing}}
	if !reflect.DeepEqual(examples, want) {
		t.Errorf("got %+v, expected %+v", examples, want)
	}
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"Empty", ""},
		{"Missing column", "subject,body\nhello,world\n"},
		{"Unknown label", "subject,body,label\nhello,world,spam\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadCSV(strings.NewReader(tt.data)); !errors.Is(err, learning.ErrInvalidTrainingData) {
				t.Errorf("expected ErrInvalidTrainingData, got %v", err)
			}
		})
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	examples, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, examples); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	again, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if !reflect.DeepEqual(examples, again) {
		t.Errorf("round trip changed examples: %+v vs %+v", examples, again)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	msg := "Subject: Reset your password\r\n\r\nYour password expires today.\r\n"
	if err := os.WriteFile(filepath.Join(dir, "one.eml"), []byte(msg), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}

	examples, err := LoadDir(dir, learning.Phishing, nil)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if len(examples) != 1 {
		t.Fatalf("expected 1 example, got %d", len(examples))
	}
	if examples[0].Subject != "Reset your password" || examples[0].Label != learning.Phishing {
		t.Errorf("unexpected example %+v", examples[0])
	}

	if _, err := LoadDir(dir, "spam", nil); !errors.Is(err, learning.ErrInvalidTrainingData) {
		t.Errorf("expected ErrInvalidTrainingData, got %v", err)
	}
}

func makeExamples(n int, label learning.Label) []learning.Example {
	out := make([]learning.Example, n)
	for i := range out {
		out[i] = learning.Example{Subject: string(label), Body: strings.Repeat("x", i+1), Label: label}
	}
	return out
}

func TestStratifiedSplit(t *testing.T) {
	examples := append(makeExamples(50, learning.Phishing), makeExamples(50, learning.Legitimate)...)

	train, test, err := StratifiedSplit(examples, 0.2, 42)
	if err != nil {
		t.Fatalf("StratifiedSplit failed: %v", err)
	}
	if len(train) != 80 || len(test) != 20 {
		t.Fatalf("expected 80/20 split, got %d/%d", len(train), len(test))
	}
	counts := Counts(test)
	if counts[learning.Phishing] != 10 || counts[learning.Legitimate] != 10 {
		t.Errorf("test split is not stratified: %v", counts)
	}

	train2, test2, _ := StratifiedSplit(examples, 0.2, 42)
	if !reflect.DeepEqual(train, train2) || !reflect.DeepEqual(test, test2) {
		t.Error("split is not deterministic for a fixed seed")
	}
}

func TestStratifiedSplitSmallGroups(t *testing.T) {
	examples := append(makeExamples(1, learning.Phishing), makeExamples(2, learning.Legitimate)...)

	train, test, err := StratifiedSplit(examples, 0.5, 1)
	if err != nil {
		t.Fatalf("StratifiedSplit failed: %v", err)
	}
	if len(train)+len(test) != 3 {
		t.Errorf("examples lost in split: %d + %d", len(train), len(test))
	}
	if Counts(train)[learning.Legitimate] == 0 {
		t.Error("every label with more than one example keeps a training example")
	}

	if _, _, err := StratifiedSplit(examples, 1, 1); err == nil {
		t.Error("expected error for test fraction 1")
	}
}
