package contracts

import "github.com/roach88/bluedoc/internal/blue"

// NewProcessingInitiated builds the lifecycle event routed by initialize.
func NewProcessingInitiated() *blue.Node {
	return &blue.Node{Type: Ref(DocumentProcessingInitiated)}
}

// NewDocumentUpdate describes a change applied at an absolute path.
// val may be nil for removals.
func NewDocumentUpdate(op blue.PatchOp, path string, val *blue.Node) *blue.Node {
	props := map[string]*blue.Node{
		"op":   blue.NewValue(string(op)),
		"path": blue.NewValue(path),
	}
	if val != nil {
		props["val"] = val
	}
	return &blue.Node{Type: Ref(DocumentUpdate), Properties: props}
}

// NewTimelineEntry wraps message as an entry of the given timeline.
func NewTimelineEntry(timelineID string, message *blue.Node) *blue.Node {
	props := map[string]*blue.Node{
		"timeline": {Properties: map[string]*blue.Node{"timelineId": blue.NewValue(timelineID)}},
	}
	if message != nil {
		props["message"] = message
	}
	return &blue.Node{Type: Ref(TimelineEntry), Properties: props}
}

// NewOperationRequest asks for operation to run with request as input.
func NewOperationRequest(operation string, request *blue.Node) *blue.Node {
	props := map[string]*blue.Node{"operation": blue.NewValue(operation)}
	if request != nil {
		props["request"] = request
	}
	return &blue.Node{Type: Ref(OperationRequest), Properties: props}
}

// NewCheckpoint is the bookkeeping contract added to every document root.
func NewCheckpoint() *blue.Node {
	return &blue.Node{
		Type:       Ref(ChannelEventCheckpoint),
		Properties: map[string]*blue.Node{"lastEvents": {Properties: map[string]*blue.Node{}}},
	}
}

// NewInitializedMarker is the marker contract added by initialize.
func NewInitializedMarker() *blue.Node {
	return &blue.Node{Type: Ref(InitializedMarker)}
}
