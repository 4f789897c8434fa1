package pubsub

// Message attributes mirroring the CloudEvent context, so subscribers can
// filter without decoding the payload.
const (
	AttrCEType   = "ce-type"
	AttrCESource = "ce-source"
	AttrCEID     = "ce-id"
	AttrUserID   = "user_id"
)

// ExtUserID is the CloudEvent extension carrying the owning user.
const ExtUserID = "userid"
