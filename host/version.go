package host

// Version of adbctl
var Version = "v0.3.0-DEV"

// ClientProtocolVersion is the ADB host protocol version this client
// speaks. An ADB server reports "1.0.<n>" for its own protocol.
const ClientProtocolVersion = 41
