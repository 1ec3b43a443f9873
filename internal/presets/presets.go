package presets

// Resolution is a named video resolution preset. Height is fixed; width
// derives from the source aspect ratio at plan time.
type Resolution struct {
	Name   string
	Height int
}

var Resolutions = map[string]Resolution{
	"4k":    {Name: "4k", Height: 2160},
	"1440p": {Name: "1440p", Height: 1440},
	"1080p": {Name: "1080p", Height: 1080},
	"720p":  {Name: "720p", Height: 720},
	"480p":  {Name: "480p", Height: 480},
	"360p":  {Name: "360p", Height: 360},
}

var ResolutionNames = []string{"4k", "1440p", "1080p", "720p", "480p", "360p"}

func GetResolution(name string) (Resolution, bool) {
	r, ok := Resolutions[name]
	return r, ok
}

// ImageFormats are the supported image output formats.
var ImageFormats = []string{"jpg", "png", "webp", "gif", "bmp", "tiff", "ico"}

// VideoFormats are the supported video output formats.
var VideoFormats = []string{"mp4", "webm", "mkv", "avi", "mov", "flv", "wmv"}

// Codec is a video codec choice. Encoder is the engine encoder name, or
// empty for stream copy.
type Codec struct {
	Name    string
	Encoder string
	Copy    bool
}

var Codecs = map[string]Codec{
	"h264": {Name: "h264", Encoder: "libx264"},
	"vp9":  {Name: "vp9", Encoder: "libvpx-vp9"},
	"h265": {Name: "h265", Encoder: "libx265"},
	"copy": {Name: "copy", Copy: true},
}

var CodecNames = []string{"h264", "vp9", "h265", "copy"}

func GetCodec(name string) (Codec, bool) {
	c, ok := Codecs[name]
	return c, ok
}

// DefaultQuality is the image quality used when the user does not set one.
const DefaultQuality = 85

func IsImageFormat(format string) bool {
	for _, f := range ImageFormats {
		if f == format {
			return true
		}
	}
	return false
}

func IsVideoFormat(format string) bool {
	for _, f := range VideoFormats {
		if f == format {
			return true
		}
	}
	return false
}
