package contracts

// Payload shapes. Structs stay open: contracts carry extra fields such as
// type and order.
var (
	TimelineChannelSchema = MustCompileSchema(TimelineChannel, `
timelineId: string
`)
	LifecycleEventChannelSchema = MustCompileSchema(LifecycleEventChannel, `
event?: _
`)
	DocumentUpdateChannelSchema = MustCompileSchema(DocumentUpdateChannel, `
path: string
`)
	EmbeddedNodeChannelSchema = MustCompileSchema(EmbeddedNodeChannel, `
path: string
`)
	ProcessEmbeddedSchema = MustCompileSchema(ProcessEmbedded, `
paths?: [...string]
`)
	ChannelEventCheckpointSchema = MustCompileSchema(ChannelEventCheckpoint, `
lastEvents?: {...}
`)
	OperationSchema = MustCompileSchema(Operation, `
channel?: string
request?: _
`)
	SequentialWorkflowSchema = MustCompileSchema(SequentialWorkflow, `
channel: string
event?:  _
steps?: [...{...}]
`)
	SequentialWorkflowOperationSchema = MustCompileSchema(SequentialWorkflowOperation, `
operation: string
steps?: [...{...}]
`)
	TimelineEntrySchema = MustCompileSchema(TimelineEntry, `
timeline: timelineId: string
message?: _
`)
	OperationRequestSchema = MustCompileSchema(OperationRequest, `
operation: string
request?:  _
`)
)

// ProcessEmbeddedSpec is the decoded Process Embedded contract.
type ProcessEmbeddedSpec struct {
	Paths []string `json:"paths"`
}

// TimelineChannelSpec is the decoded Timeline Channel contract.
type TimelineChannelSpec struct {
	TimelineID string `json:"timelineId"`
}

// PathSpec is the decoded shape of path-scoped channels.
type PathSpec struct {
	Path string `json:"path"`
}

// OperationSpec is the decoded Operation contract.
type OperationSpec struct {
	Channel string `json:"channel"`
}

// WorkflowSpec is the decoded Sequential Workflow contract. Steps are
// read from the node itself.
type WorkflowSpec struct {
	Channel   string `json:"channel"`
	Operation string `json:"operation"`
}

// TimelineEntrySpec is the decoded Timeline Entry event.
type TimelineEntrySpec struct {
	Timeline struct {
		TimelineID string `json:"timelineId"`
	} `json:"timeline"`
}

// OperationRequestSpec is the decoded Operation Request message.
type OperationRequestSpec struct {
	Operation string `json:"operation"`
}
