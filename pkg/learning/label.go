package learning

import "fmt"

// Label is one of the two classes the classifier distinguishes
type Label string

const (
	Legitimate Label = "legitimate"
	Phishing   Label = "phishing"
)

// Labels lists every class in tie-break order. Index i of a per-class table
// belongs to Labels[i].
var Labels = [...]Label{Legitimate, Phishing}

// ParseLabel converts a raw string into a Label
func ParseLabel(s string) (Label, error) {
	l := Label(s)
	if !l.Valid() {
		return "", fmt.Errorf("%w: unknown label %q", ErrInvalidTrainingData, s)
	}
	return l, nil
}

// Valid reports whether l is one of the known classes
func (l Label) Valid() bool {
	return l == Legitimate || l == Phishing
}

func (l Label) index() int {
	if l == Phishing {
		return 1
	}
	return 0
}

func (l Label) String() string {
	return string(l)
}

// Probabilities maps each class to its membership probability
type Probabilities map[Label]float64
