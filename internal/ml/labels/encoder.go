// Package labels maps category names to contiguous integer class ids.
package labels

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrUnknownLabel = errors.New("labels: unknown label")
	ErrUnknownClass = errors.New("labels: class id out of range")
	ErrNoLabels     = errors.New("labels: no labels to fit")
)

// Encoder assigns ids in sorted label order.
type Encoder struct {
	Classes []string `json:"classes"`
}

func NewEncoder() *Encoder {
	return &Encoder{}
}

// Fit learns the distinct labels. Previous state is discarded.
func (e *Encoder) Fit(labels []string) error {
	if len(labels) == 0 {
		return ErrNoLabels
	}
	seen := make(map[string]struct{}, len(labels))
	classes := make([]string, 0)
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		classes = append(classes, l)
	}
	sort.Strings(classes)
	e.Classes = classes
	return nil
}

// Len returns the number of fitted classes.
func (e *Encoder) Len() int { return len(e.Classes) }

func (e *Encoder) Encode(label string) (int, error) {
	id := sort.SearchStrings(e.Classes, label)
	if id == len(e.Classes) || e.Classes[id] != label {
		return 0, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	return id, nil
}

// EncodeAll encodes every label or fails on the first unknown one.
func (e *Encoder) EncodeAll(labels []string) ([]int, error) {
	ids := make([]int, len(labels))
	for i, l := range labels {
		id, err := e.Encode(l)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

func (e *Encoder) Decode(id int) (string, error) {
	if id < 0 || id >= len(e.Classes) {
		return "", fmt.Errorf("%w: %d (have %d classes)", ErrUnknownClass, id, len(e.Classes))
	}
	return e.Classes[id], nil
}
