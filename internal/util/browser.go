package util

import (
	"os/exec"
	"runtime"
)

// OpenBrowser 打开系统默认浏览器访问 url
func OpenBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		// rundll32 在老版本 Windows 上比 cmd /c start 更稳定
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}

	err := cmd.Start()
	if err == nil {
		return nil
	}

	// 降级：逐个尝试常见浏览器
	if runtime.GOOS == "linux" {
		for _, browser := range []string{"google-chrome", "firefox", "chromium-browser", "sensible-browser"} {
			if startErr := exec.Command(browser, url).Start(); startErr == nil {
				return nil
			}
		}
	}
	return err
}
