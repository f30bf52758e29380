package resource

// Resource types.
const (
	RT_CURSOR       = 1
	RT_BITMAP       = 2
	RT_ICON         = 3
	RT_MENU         = 4
	RT_DIALOG       = 5
	RT_STRING       = 6
	RT_FONTDIR      = 7
	RT_FONT         = 8
	RT_ACCELERATOR  = 9
	RT_RCDATA       = 10
	RT_MESSAGETABLE = 11
	RT_GROUP_CURSOR = 12
	RT_GROUP_ICON   = 14
	RT_VERSION      = 16
	RT_DLGINCLUDE   = 17
	RT_PLUGPLAY     = 19
	RT_VXD          = 20
	RT_ANICURSOR    = 21
	RT_ANIICON      = 22
	RT_HTML         = 23
	RT_MANIFEST     = 24
	RT_DLGINIT      = 240
	RT_TOOLBAR      = 241
)

// Fallbacks for resource types missing from the table.
const (
	FallbackDirName   = "unknown"
	FallbackExtension = ".bin"
)

// TypeInfo describes a well-known resource type.
type TypeInfo struct {
	ID        uint32
	Name      string
	Extension string
	DirName   string
}

// TypeTable maps level 1 resource type ids to their description.
type TypeTable map[uint32]TypeInfo

// DefaultTypes is the table of types defined by the PE format.
var DefaultTypes = newTypeTable(
	TypeInfo{RT_CURSOR, "RT_CURSOR", ".cur", "cursors"},
	TypeInfo{RT_BITMAP, "RT_BITMAP", ".bmp", "bitmaps"},
	TypeInfo{RT_ICON, "RT_ICON", ".ico", "icons"},
	TypeInfo{RT_MENU, "RT_MENU", ".rc", "menus"},
	TypeInfo{RT_DIALOG, "RT_DIALOG", ".dlg", "dialogs"},
	TypeInfo{RT_STRING, "RT_STRING", ".rc", "strings"},
	TypeInfo{RT_FONTDIR, "RT_FONTDIR", ".fnt", "fontdirs"},
	TypeInfo{RT_FONT, "RT_FONT", ".fnt", "fonts"},
	TypeInfo{RT_ACCELERATOR, "RT_ACCELERATOR", ".rc", "accelerators"},
	TypeInfo{RT_RCDATA, "RT_RCDATA", ".rc", "rcdatas"},
	TypeInfo{RT_MESSAGETABLE, "RT_MESSAGETABLE", ".mc", "messagetables"},
	TypeInfo{RT_GROUP_CURSOR, "RT_GROUP_CURSOR", ".cur", "groupcursors"},
	TypeInfo{RT_GROUP_ICON, "RT_GROUP_ICON", ".ico", "groupicons"},
	TypeInfo{RT_VERSION, "RT_VERSION", ".rc", "versions"},
	TypeInfo{RT_DLGINCLUDE, "RT_DLGINCLUDE", ".rc", "dlgincludes"},
	TypeInfo{RT_PLUGPLAY, "RT_PLUGPLAY", ".rc", "plugplays"},
	TypeInfo{RT_VXD, "RT_VXD", ".rc", "vxds"},
	TypeInfo{RT_ANICURSOR, "RT_ANICURSOR", ".rc", "anicursors"},
	TypeInfo{RT_ANIICON, "RT_ANIICON", ".rc", "aniicons"},
	TypeInfo{RT_HTML, "RT_HTML", ".html", "htmls"},
	TypeInfo{RT_MANIFEST, "RT_MANIFEST", ".xml", "manifests"},
	TypeInfo{RT_DLGINIT, "RT_DLGINIT", ".rc", "dlginits"},
	TypeInfo{RT_TOOLBAR, "RT_TOOLBAR", ".rc", "toolbars"},
)

func newTypeTable(infos ...TypeInfo) TypeTable {
	t := make(TypeTable, len(infos))
	for _, info := range infos {
		t[info.ID] = info
	}
	return t
}

// Lookup returns the description of a type id.
func (t TypeTable) Lookup(id uint32) (TypeInfo, bool) {
	info, ok := t[id]
	return info, ok
}

// DirName returns the category directory for a type id.
func (t TypeTable) DirName(id uint32) string {
	if info, ok := t[id]; ok {
		return info.DirName
	}
	return FallbackDirName
}

// Extension returns the file extension for a type id.
func (t TypeTable) Extension(id uint32) string {
	if info, ok := t[id]; ok {
		return info.Extension
	}
	return FallbackExtension
}
