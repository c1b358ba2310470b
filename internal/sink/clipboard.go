package sink

import "time"

// restoreClipboardDelay optionally restores clipboard contents after
// 100 ms, long enough that the target application's paste has already
// read the clipboard we just set.
const restoreClipboardDelay = 100 * time.Millisecond

// restorePasteClipboard puts the clipboard back to prior after the target
// application has had time to consume the pasted text. Fire-and-forget: a
// failed restore is not worth failing the whole sink pipeline over.
func restorePasteClipboard(clipboard Clipboard, prior string) {
	time.AfterFunc(restoreClipboardDelay, func() {
		_ = clipboard.SetText(prior)
	})
}
