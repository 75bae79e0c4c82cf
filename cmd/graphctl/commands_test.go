package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/panot-hq/edge-backend/pkg/graph"
	"github.com/panot-hq/edge-backend/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuditor struct {
	drift  []store.WeightDrift
	report *graph.RepairReport
}

func (s *stubAuditor) AuditWeights(context.Context, uuid.UUID) ([]store.WeightDrift, error) {
	return s.drift, nil
}

func (s *stubAuditor) RepairWeights(context.Context, uuid.UUID) (*graph.RepairReport, error) {
	return s.report, nil
}

func TestRunAuditClean(t *testing.T) {
	var out bytes.Buffer
	err := runAudit(context.Background(), &stubAuditor{}, uuid.New(), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "No drift")
}

func TestRunAuditReportsDrift(t *testing.T) {
	var out bytes.Buffer
	nodeID := uuid.New()
	a := &stubAuditor{drift: []store.WeightDrift{
		{NodeID: nodeID, Label: "Padel", Category: "Hobby", Weight: 3, InDegree: 1},
	}}

	err := runAudit(context.Background(), a, uuid.New(), &out)
	require.ErrorIs(t, err, errDrift)
	assert.Contains(t, out.String(), nodeID.String())
	assert.Contains(t, out.String(), "Padel")
}

func TestRunRepair(t *testing.T) {
	var out bytes.Buffer
	a := &stubAuditor{report: &graph.RepairReport{
		Adjusted:       2,
		CollectedNodes: []uuid.UUID{uuid.New()},
		Drift:          []store.WeightDrift{{NodeID: uuid.New(), Label: "Acme", Weight: 0, InDegree: 2}},
	}}

	require.NoError(t, runRepair(context.Background(), a, uuid.New(), &out))
	assert.Contains(t, out.String(), "Adjusted 2 weights, collected 1 concepts.")
	assert.Contains(t, out.String(), "Acme")
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "graphctl v"+version)
}

func TestAuditRequiresTenant(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"audit", "--database-url", "postgres://localhost/none"})
	assert.Error(t, cmd.Execute())
}
