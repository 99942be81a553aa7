package simobjects

import jsoniter "github.com/json-iterator/go"

var wireJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// MarshalCommand/UnmarshalCommand encode the single wire message type
// published to a Worker's runner/<worker-uuid> topic. Plain JSON (not
// BlobStore's binary envelope) since bus messages are small, one-shot,
// and never need the compression threshold BlobStore values do.
func MarshalCommand(c RunnerCommand) ([]byte, error) { return wireJSON.Marshal(c) }

func UnmarshalCommand(b []byte) (RunnerCommand, error) {
	var c RunnerCommand
	err := wireJSON.Unmarshal(b, &c)
	return c, err
}

func MarshalAck(a AckSteps) ([]byte, error) { return wireJSON.Marshal(a) }

func UnmarshalAck(b []byte) (AckSteps, error) {
	var a AckSteps
	err := wireJSON.Unmarshal(b, &a)
	return a, err
}

func MarshalRayCastQuery(q RayCastQuery) ([]byte, error) { return wireJSON.Marshal(q) }

func UnmarshalRayCastQuery(b []byte) (RayCastQuery, error) {
	var q RayCastQuery
	err := wireJSON.Unmarshal(b, &q)
	return q, err
}

func MarshalRayCastResponse(r RayCastResponse) ([]byte, error) { return wireJSON.Marshal(r) }

func UnmarshalRayCastResponse(b []byte) (RayCastResponse, error) {
	var r RayCastResponse
	err := wireJSON.Unmarshal(b, &r)
	return r, err
}
