package resource

// ChangeType tags the canonical change-event variants produced by push
// normalization.
type ChangeType string

const (
	ChangeCreate ChangeType = "create"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
	ChangePatch  ChangeType = "patch"
)

// Change is a server-confirmed mutation delivered over a push channel.
// Item is set for create/update, ID for delete/patch, Patch for patch.
// Resource may be empty when the wire message carried no resource field.
type Change struct {
	Type     ChangeType
	Resource string
	Item     Item
	ID       string
	Patch    map[string]any
}
