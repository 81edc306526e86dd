package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"plan-studio/internal/plan/model"
)

// ============================================================
// Remote generator
// ============================================================

// FormatError reports that the content-generation collaborator returned an
// unparseable or schema-incompatible payload. The attempt is dead; there is
// no partial recovery, the user resubmits.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation format error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("generation format error: %s", e.Reason)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Remote calls an external content-generation service over HTTP. The
// service receives the structured project payload and must answer with a
// JSON document conforming exactly to the FloorPlan schema.
type Remote struct {
	baseURL string
	client  *http.Client
}

func NewRemote(baseURL string, client *http.Client) *Remote {
	if client == nil {
		client = http.DefaultClient
	}
	return &Remote{baseURL: baseURL, client: client}
}

func (r *Remote) GeneratePlan(ctx context.Context, in Input) (*model.FloorPlan, error) {
	body, err := r.post(ctx, "/generate/plan", in)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()

	var plan model.FloorPlan
	if err := dec.Decode(&plan); err != nil {
		return nil, &FormatError{Reason: "response is not a FloorPlan document", Err: err}
	}
	if err := checkSchema(&plan); err != nil {
		return nil, &FormatError{Reason: err.Error()}
	}
	return &plan, nil
}

func (r *Remote) GenerateReport(ctx context.Context, in Input, command string) (string, error) {
	payload := struct {
		Input
		Command string `json:"command,omitempty"`
	}{Input: in, Command: command}

	body, err := r.post(ctx, "/generate/report", payload)
	if err != nil {
		return "", err
	}

	var resp struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &FormatError{Reason: "response is not a report document", Err: err}
	}
	if resp.Content == "" {
		return "", &FormatError{Reason: "report content is empty"}
	}
	return resp.Content, nil
}

func (r *Remote) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode generation payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generation request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read generation response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("generation service status %d", resp.StatusCode)
	}
	return body, nil
}

// checkSchema rejects structurally hollow payloads before they reach the
// connectivity validator.
func checkSchema(plan *model.FloorPlan) error {
	if len(plan.Rooms.Elements) == 0 {
		return fmt.Errorf("plan has no rooms")
	}
	if len(plan.Walls.Elements) == 0 {
		return fmt.Errorf("plan has no walls")
	}
	for _, room := range plan.Rooms.Elements {
		if room.ID == "" {
			return fmt.Errorf("room without id")
		}
		if len(room.Bounds.Corners) < 3 {
			return fmt.Errorf("room %s has fewer than 3 corners", room.ID)
		}
	}
	for _, wall := range plan.Walls.Elements {
		if wall.ID == "" {
			return fmt.Errorf("wall without id")
		}
		if wall.Thickness <= 0 {
			return fmt.Errorf("wall %s has non-positive thickness", wall.ID)
		}
		if wall.StartPoint == wall.EndPoint {
			return fmt.Errorf("wall %s has zero length", wall.ID)
		}
	}
	return nil
}
