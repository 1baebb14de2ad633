package model

// FFProbeOutput is the subset of `ffprobe -print_format json -show_format
// -show_streams` used to describe an audio source.
type FFProbeOutput struct {
	Streams []FFProbeStream `json:"streams"`
	Format  FFProbeFormat   `json:"format"`
}

type FFProbeStream struct {
	CodecType     string `json:"codec_type"`
	CodecName     string `json:"codec_name"`
	SampleRate    int    `json:"sample_rate,string"`
	Channels      int    `json:"channels"`
	SampleFmt     string `json:"sample_fmt"`
	BitsPerSample int    `json:"bits_per_sample"`
}

type FFProbeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
}
