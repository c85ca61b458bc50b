package stream

// Format is one entry of the static itag → metadata table spec.md §6
// fixes. Width/height are 0 for audio-only entries.
type Format struct {
	Itag        string
	Description string
	Ext         string
	Width       int
	Height      int
}

// formatTable is the process-wide, immutable-after-init itag table,
// grounded verbatim on FormatHash in
// original_source/src/streamsrequest.cpp, including its one quirk: itag
// 151's Format literal carries id "92", a copy-paste artifact in the
// original kept here for fidelity to that table. It never surfaces in a
// resolved StreamFormat, though: parseStreamPart sets StreamFormat.Itag
// from the raw query itag ("151"), not from this table's Format.Itag.
var formatTable = map[string]Format{
	"5":   {"5", "FLV audio/video", "flv", 400, 240},
	"6":   {"6", "FLV audio/video", "flv", 450, 270},
	"17":  {"17", "3GP audio/video", "3gp", 176, 144},
	"18":  {"18", "MP4 audio/video", "mp4", 640, 360},
	"22":  {"22", "MP4 audio/video", "mp4", 1280, 720},
	"34":  {"34", "FLV audio/video", "flv", 640, 360},
	"35":  {"35", "FLV audio/video", "flv", 854, 480},
	"36":  {"36", "3GP audio/video", "3gp", 320, 240},
	"37":  {"37", "MP4 audio/video", "mp4", 1920, 1080},
	"38":  {"38", "MP4 audio/video", "mp4", 4096, 3072},
	"43":  {"43", "WebM audio/video", "webm", 640, 360},
	"44":  {"44", "WebM audio/video", "webm", 854, 480},
	"45":  {"45", "WebM audio/video", "webm", 1280, 720},
	"46":  {"46", "WebM audio/video", "webm", 1920, 1080},
	"82":  {"82", "MP4 3D audio/video", "mp4", 640, 360},
	"83":  {"83", "MP4 3D audio/video", "mp4", 854, 480},
	"84":  {"84", "MP4 3D audio/video", "mp4", 1280, 720},
	"85":  {"85", "MP4 3D audio/video", "mp4", 1920, 1080},
	"100": {"100", "WebM 3D audio/video", "webm", 640, 360},
	"101": {"101", "WebM 3D audio/video", "webm", 854, 480},
	"102": {"102", "WebM 3D audio/video", "webm", 1280, 720},
	"92":  {"92", "MP4 HLS audio/video", "mp4", 400, 240},
	"93":  {"93", "MP4 HLS audio/video", "mp4", 640, 360},
	"94":  {"94", "MP4 HLS audio/video", "mp4", 854, 480},
	"95":  {"95", "MP4 HLS audio/video", "mp4", 1280, 720},
	"96":  {"96", "MP4 HLS audio/video", "mp4", 1920, 1080},
	"132": {"132", "MP4 HLS audio/video", "mp4", 400, 240},
	"151": {"92", "MP4 HLS audio/video", "mp4", 88, 72},
	"133": {"133", "DASH MP4 video", "mp4", 400, 240},
	"134": {"134", "DASH MP4 video", "mp4", 640, 360},
	"135": {"135", "DASH MP4 video", "mp4", 854, 480},
	"136": {"136", "DASH MP4 video", "mp4", 1280, 720},
	"137": {"137", "DASH MP4 video", "mp4", 1920, 1080},
	"160": {"160", "DASH MP4 video", "mp4", 176, 144},
	"264": {"264", "DASH MP4 video", "mp4", 2560, 1440},
	"298": {"298", "DASH MP4 video", "mp4", 1280, 720},
	"299": {"299", "DASH MP4 video", "mp4", 1920, 1080},
	"266": {"266", "DASH MP4 video", "mp4", 3840, 2160},
	"139": {"139", "DASH MP4 audio", "m4a", 0, 0},
	"140": {"140", "DASH MP4 audio", "m4a", 0, 0},
	"141": {"141", "DASH MP4 audio", "m4a", 0, 0},
	"167": {"167", "DASH WebM video", "webm", 640, 360},
	"168": {"168", "DASH WebM video", "webm", 854, 480},
	"169": {"169", "DASH WebM video", "webm", 1280, 720},
	"170": {"170", "DASH WebM video", "webm", 1920, 1080},
	"218": {"218", "DASH WebM video", "webm", 854, 480},
	"219": {"219", "DASH WebM video", "webm", 854, 480},
	"278": {"278", "DASH WebM video", "webm", 176, 144},
	"242": {"242", "DASH WebM video", "webm", 400, 240},
	"243": {"243", "DASH WebM video", "webm", 640, 360},
	"244": {"244", "DASH WebM video", "webm", 854, 480},
	"245": {"245", "DASH WebM video", "webm", 854, 480},
	"246": {"246", "DASH WebM video", "webm", 854, 480},
	"247": {"247", "DASH WebM video", "webm", 1280, 720},
	"248": {"248", "DASH WebM video", "webm", 1920, 1080},
	"271": {"271", "DASH WebM video", "webm", 2560, 1440},
	"272": {"272", "DASH WebM video", "webm", 3840, 2160},
	"302": {"302", "DASH WebM video", "webm", 1280, 720},
	"303": {"303", "DASH WebM video", "webm", 1920, 1080},
	"308": {"308", "DASH WebM video", "webm", 2560, 1440},
	"313": {"313", "DASH WebM video", "webm", 3840, 2160},
	"315": {"315", "DASH WebM video", "webm", 3840, 2160},
	"171": {"171", "DASH WebM audio", "webm", 0, 0},
	"172": {"172", "DASH WebM audio", "webm", 0, 0},
	"249": {"249", "DASH WebM audio", "webm", 0, 0},
	"250": {"250", "DASH WebM audio", "webm", 0, 0},
	"251": {"251", "DASH WebM audio", "webm", 0, 0},
}

// lookupFormat returns the table entry for itag, or a zero-value Format
// carrying only the itag if it isn't one of the known encodings — the
// original's QHash::value() returns a default-constructed Format rather
// than failing the whole request for an unrecognized itag.
func lookupFormat(itag string) Format {
	if f, ok := formatTable[itag]; ok {
		return f
	}
	return Format{Itag: itag}
}
