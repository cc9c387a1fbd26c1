package models

// GlobalProgress は /get_global_progress のレスポンスです。
type GlobalProgress struct {
	CharsAtTarget   int     `json:"chars_with_50_samples"`
	TotalCharacters int     `json:"total_characters"`
	TotalSamples    int     `json:"total_samples_collected"`
	TargetSamples   int     `json:"target_samples"`
	Percentage      float64 `json:"percentage"`
}

// ProgressUpdate はWebSocketで配信される進捗更新メッセージです。
type ProgressUpdate struct {
	Type   string         `json:"type"`
	Key    string         `json:"key"`
	Count  int            `json:"count"`
	Global GlobalProgress `json:"global"`
}
