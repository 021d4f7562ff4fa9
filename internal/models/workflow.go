package models

import "fmt"

// WorkflowStatus is a linear production-stage label
type WorkflowStatus string

const (
	WorkflowAuditioning   WorkflowStatus = "auditioning"
	WorkflowCasting       WorkflowStatus = "casting"
	WorkflowOfferingRoles WorkflowStatus = "offering_roles"
	WorkflowRehearsing    WorkflowStatus = "rehearsing"
	WorkflowPerforming    WorkflowStatus = "performing"
	WorkflowCompleted     WorkflowStatus = "completed"
)

var workflowOrder = []WorkflowStatus{
	WorkflowAuditioning,
	WorkflowCasting,
	WorkflowOfferingRoles,
	WorkflowRehearsing,
	WorkflowPerforming,
	WorkflowCompleted,
}

var workflowLabels = map[WorkflowStatus]string{
	WorkflowAuditioning:   "Auditioning",
	WorkflowCasting:       "Casting",
	WorkflowOfferingRoles: "Offering Roles",
	WorkflowRehearsing:    "Rehearsing",
	WorkflowPerforming:    "Performing",
	WorkflowCompleted:     "Completed",
}

// WorkflowStatuses returns the stages in order
func WorkflowStatuses() []WorkflowStatus {
	out := make([]WorkflowStatus, len(workflowOrder))
	copy(out, workflowOrder)
	return out
}

func (w WorkflowStatus) Valid() bool {
	_, ok := workflowLabels[w]
	return ok
}

func (w WorkflowStatus) Label() string {
	if label, ok := workflowLabels[w]; ok {
		return label
	}
	return string(w)
}

// Next returns the following stage. An empty status counts as auditioning.
func (w WorkflowStatus) Next() (WorkflowStatus, error) {
	if w == "" {
		w = WorkflowAuditioning
	}
	for i, s := range workflowOrder {
		if s != w {
			continue
		}
		if i == len(workflowOrder)-1 {
			return w, fmt.Errorf("production is already %s", w)
		}
		return workflowOrder[i+1], nil
	}
	return w, fmt.Errorf("unknown workflow status: %s", w)
}
