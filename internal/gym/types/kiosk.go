package types

type HeartbeatRequest struct {
	KioskID         string `json:"kiosk_id"`
	FirmwareVersion string `json:"firmware_version,omitempty"`
	UptimeSeconds   uint64 `json:"uptime_s,omitempty"`
	IP              string `json:"ip,omitempty"`
	Sequence        uint64 `json:"sequence,omitempty"`
}

type HeartbeatResponse struct {
	OK         bool   `json:"ok"`
	Known      bool   `json:"known"`
	KioskID    string `json:"kiosk_id"`
	ServerTime string `json:"server_time"`
}
