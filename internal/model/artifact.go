package model

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/couchcryptid/aqi-forecast-service/internal/domain"
)

const (
	ArtifactKind    = "pm25_random_forest"
	ArtifactVersion = 1
)

// Artifact is a trained model together with what it was trained on.
type Artifact struct {
	Kind      string        `json:"kind"`
	Version   int           `json:"version"`
	Features  []string      `json:"features"`
	TrainedAt time.Time     `json:"trained_at"`
	Metrics   Metrics       `json:"metrics"`
	Forest    *RandomForest `json:"forest"`
}

// Predict applies the forest to a feature row.
func (a *Artifact) Predict(row domain.FeatureRow) (float64, error) {
	return a.Forest.Predict(row.Vector())
}

// EncodeArtifact serializes an artifact for an ArtifactStore.
func EncodeArtifact(a *Artifact) ([]byte, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	return data, nil
}

// DecodeArtifact parses and validates a stored artifact. Artifacts built for
// a different feature layout are rejected rather than silently misapplied.
func DecodeArtifact(data []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if a.Kind != ArtifactKind {
		return nil, fmt.Errorf("decode artifact: unexpected kind %q", a.Kind)
	}
	if a.Version != ArtifactVersion {
		return nil, fmt.Errorf("decode artifact: unsupported version %d", a.Version)
	}
	if !slices.Equal(a.Features, domain.FeatureNames) {
		return nil, fmt.Errorf("decode artifact: features %v do not match %v", a.Features, domain.FeatureNames)
	}
	if a.Forest == nil {
		return nil, fmt.Errorf("decode artifact: missing forest")
	}
	if err := a.Forest.Validate(); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return &a, nil
}
