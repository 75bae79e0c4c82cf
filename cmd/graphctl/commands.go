package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/panot-hq/edge-backend/pkg/graph"
	"github.com/panot-hq/edge-backend/pkg/store"

	"github.com/google/uuid"
)

// errDrift makes audit exit non-zero without printing an error.
var errDrift = errors.New("weight drift detected")

type weightAuditor interface {
	AuditWeights(ctx context.Context, tenantID uuid.UUID) ([]store.WeightDrift, error)
	RepairWeights(ctx context.Context, tenantID uuid.UUID) (*graph.RepairReport, error)
}

var _ weightAuditor = (*graph.Engine)(nil)

func printDrift(out io.Writer, drift []store.WeightDrift) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NODE\tLABEL\tCATEGORY\tWEIGHT\tIN-DEGREE")
	for _, d := range drift {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", d.NodeID, d.Label, d.Category, d.Weight, d.InDegree)
	}
	w.Flush()
}

func runAudit(ctx context.Context, a weightAuditor, tenantID uuid.UUID, out io.Writer) error {
	drift, err := a.AuditWeights(ctx, tenantID)
	if err != nil {
		return err
	}
	if len(drift) == 0 {
		fmt.Fprintln(out, "No drift: every concept weight matches its in-degree.")
		return nil
	}
	printDrift(out, drift)
	return errDrift
}

func runRepair(ctx context.Context, a weightAuditor, tenantID uuid.UUID, out io.Writer) error {
	report, err := a.RepairWeights(ctx, tenantID)
	if err != nil {
		return err
	}
	if len(report.Drift) > 0 {
		printDrift(out, report.Drift)
	}
	fmt.Fprintf(out, "Adjusted %d weights, collected %d concepts.\n", report.Adjusted, len(report.CollectedNodes))
	return nil
}
