package styles

// Toast icons, one per notification kind.
var (
	IconInfo    = "ℹ"
	IconSuccess = "✓"
	IconWarning = "⚠"
	IconError   = "✕"
	IconClose   = "✕"
)

var (
	IconScript  = "✎"
	IconHistory = "↺"
	IconLock    = "🔒"
	IconMail    = "✉"
	IconBullet  = "•"
)
