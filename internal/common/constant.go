// Package common contains shared constants and sentinel errors used across
// ChainVault components.
package common

// OctetStreamMimeType is the fallback MIME type recorded for uploads whose
// content type the client did not declare and could not be detected.
const OctetStreamMimeType = "application/octet-stream"
