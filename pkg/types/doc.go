// Package types defines the resource models exchanged with the Infactory API
// and the error taxonomy shared by the transport and streaming layers.
//
// Models mirror the JSON the API returns. Fields the SDK does not interpret
// (schemas, query program bodies, billing details) are kept as json.RawMessage
// so they round-trip without loss.
package types
