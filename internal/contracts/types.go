// Package contracts defines the core Blue contract and event types, the
// reserved contract keys, event payload factories, and the CUE schemas
// that validate contract payload shapes.
package contracts

import (
	"fmt"

	"github.com/roach88/bluedoc/internal/blue"
)

// Core type names.
const (
	Channel               = "Channel"
	TimelineChannel       = "Timeline Channel"
	LifecycleEventChannel = "Lifecycle Event Channel"
	DocumentUpdateChannel = "Document Update Channel"
	EmbeddedNodeChannel   = "Embedded Node Channel"

	ProcessEmbedded        = "Process Embedded"
	ChannelEventCheckpoint = "Channel Event Checkpoint"
	InitializedMarker      = "Initialized Marker"

	Operation                   = "Operation"
	SequentialWorkflow          = "Sequential Workflow"
	SequentialWorkflowOperation = "Sequential Workflow Operation"

	WorkflowStep   = "Workflow Step"
	UpdateDocument = "Update Document"
	TriggerEvent   = "Trigger Event"
	Expression     = "Expression"

	DocumentProcessingInitiated = "Document Processing Initiated"
	DocumentUpdate              = "Document Update"
	TimelineEntry               = "Timeline Entry"
	OperationRequest            = "Operation Request"
)

// Reserved contract keys.
const (
	KeyEmbedded    = "embedded"
	KeyInitialized = "initialized"
	KeyTerminated  = "terminated"
	KeyCheckpoint  = "checkpoint"
)

type typeDef struct {
	name, parent, description string
}

// coreTypes lists parents before children.
var coreTypes = []typeDef{
	{Channel, "", "Base type of every channel contract."},
	{TimelineChannel, Channel, "Forwards timeline entries of one timeline."},
	{LifecycleEventChannel, Channel, "Forwards processing lifecycle events."},
	{DocumentUpdateChannel, Channel, "Forwards document updates under one path."},
	{EmbeddedNodeChannel, Channel, "Forwards events emitted by an embedded node."},
	{ProcessEmbedded, "", "Declares embedded sub-documents."},
	{ChannelEventCheckpoint, "", "Last event handled per channel."},
	{InitializedMarker, "", "Marks a document as initialized."},
	{Operation, "", "Named operation invoked through a channel."},
	{SequentialWorkflow, "", "Runs steps for events of a channel."},
	{SequentialWorkflowOperation, "", "Runs steps for requests of an operation."},
	{WorkflowStep, "", "Base type of workflow steps."},
	{UpdateDocument, WorkflowStep, "Applies a changeset to the document."},
	{TriggerEvent, WorkflowStep, "Emits an event."},
	{Expression, WorkflowStep, "Evaluates an expression."},
	{DocumentProcessingInitiated, "", "Emitted once when a document is initialized."},
	{DocumentUpdate, "", "Describes one applied document change."},
	{TimelineEntry, "", "An entry appended to a timeline."},
	{OperationRequest, "", "A request to run an operation."},
}

var defaultRepo = NewRepository()

// NewRepository returns a repository with every core type defined.
// Callers may define further types on it.
func NewRepository() *blue.Repository {
	r := blue.NewRepository()
	for _, t := range coreTypes {
		r.MustDefine(t.name, t.parent, t.description)
	}
	return r
}

// NewBlue returns a Blue bound to a fresh core repository.
func NewBlue() *blue.Blue {
	return blue.New(NewRepository())
}

// ID returns the BlueID of a core type. It panics on unknown names.
func ID(name string) blue.BlueID {
	id, ok := defaultRepo.Lookup(name)
	if !ok {
		panic(fmt.Sprintf("contracts: unknown core type %q", name))
	}
	return id
}

// Ref returns a type link to a core type by name.
func Ref(name string) *blue.Node {
	return blue.NewTypeRef(name)
}
