package river_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	goriver "github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"

	riveradapter "github.com/neomorfeo/ringside/internal/adapter/river"
)

func TestChangeWorker_Work_LogsChange(t *testing.T) {
	var buf bytes.Buffer
	w := &riveradapter.ChangeWorker{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	job := &goriver.Job[riveradapter.ChangeJobArgs]{
		JobRow: &rivertype.JobRow{ID: 42, Attempt: 1},
		Args: riveradapter.ChangeJobArgs{
			Event:         "left",
			EntityID:      "w-1",
			EntityType:    "wrestler",
			EffectiveDate: effective,
			RelatedID:     "tt-1",
		},
	}

	if err := w.Work(context.Background(), job); err != nil {
		t.Fatalf("Work: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		`msg="processing roster change"`,
		"event=left",
		"entity_id=w-1",
		"related_id=tt-1",
		"job_id=42",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q, got: %s", want, out)
		}
	}
}

func TestChangeWorker_Work_OmitsEmptyRelated(t *testing.T) {
	var buf bytes.Buffer
	w := &riveradapter.ChangeWorker{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	job := &goriver.Job[riveradapter.ChangeJobArgs]{
		JobRow: &rivertype.JobRow{ID: 1, Attempt: 1},
		Args:   riveradapter.ChangeJobArgs{Event: "employ", EntityID: "w-1", EntityType: "wrestler", EffectiveDate: effective},
	}

	if err := w.Work(context.Background(), job); err != nil {
		t.Fatalf("Work: %v", err)
	}
	if strings.Contains(buf.String(), "related_id") {
		t.Errorf("unexpected related_id in %s", buf.String())
	}
}
