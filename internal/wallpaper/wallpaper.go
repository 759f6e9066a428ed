// Package wallpaper applies a fully-downloaded image file as the desktop
// background. It shells out to the tooling of the running desktop
// environment, trying each known desktop in turn.
package wallpaper

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"path/filepath"
)

// Placement selects which surfaces receive the image.
type Placement int

const (
	Background Placement = iota
	Lockscreen
	Both
)

func (p Placement) String() string {
	switch p {
	case Background:
		return "background"
	case Lockscreen:
		return "lockscreen"
	case Both:
		return "both"
	default:
		return fmt.Sprintf("placement(%d)", int(p))
	}
}

// ParsePlacement resolves a placement name from configuration or flags.
func ParsePlacement(name string) (Placement, error) {
	switch name {
	case "background":
		return Background, nil
	case "lockscreen":
		return Lockscreen, nil
	case "both":
		return Both, nil
	default:
		return 0, fmt.Errorf("unknown placement %q", name)
	}
}

// Set applies the image at path. The file must be complete and valid; this
// package never touches the download pipeline.
func Set(ctx context.Context, logger *log.Logger, path string, placement Placement) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("wallpaper: resolve path: %w", err)
	}

	attempts := []struct {
		name  string
		apply func(context.Context, string, Placement) error
	}{
		{"gnome", setGnome},
		{"kde", setKDE},
		{"xfce", setXFCE},
		{"feh", setFeh},
	}
	var lastErr error
	for _, attempt := range attempts {
		if err := attempt.apply(ctx, absPath, placement); err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("wallpaper: cancelled: %w", ctx.Err())
			}
			lastErr = err
			continue
		}
		logger.Printf("Set wallpaper via %s (%s)", attempt.name, placement)
		return nil
	}
	return fmt.Errorf("wallpaper: no supported desktop environment found: %w", lastErr)
}

func setGnome(ctx context.Context, path string, placement Placement) error {
	uri := "file://" + path
	if placement == Background || placement == Both {
		for _, key := range []string{"picture-uri", "picture-uri-dark"} {
			cmd := exec.CommandContext(ctx, "gsettings", "set", "org.gnome.desktop.background", key, uri)
			if err := cmd.Run(); err != nil {
				return err
			}
		}
	}
	if placement == Lockscreen || placement == Both {
		cmd := exec.CommandContext(ctx, "gsettings", "set", "org.gnome.desktop.screensaver", "picture-uri", uri)
		if err := cmd.Run(); err != nil {
			return err
		}
	}
	return nil
}

func setKDE(ctx context.Context, path string, _ Placement) error {
	script := fmt.Sprintf(`
var allDesktops = desktops();
for (i=0;i<allDesktops.length;i++) {
	d = allDesktops[i];
	d.wallpaperPlugin = "org.kde.image";
	d.currentConfigGroup = Array("Wallpaper", "org.kde.image", "General");
	d.writeConfig("Image", "file://%s");
}
`, path)
	return exec.CommandContext(ctx, "qdbus", "org.kde.plasmashell", "/PlasmaShell",
		"org.kde.PlasmaShell.evaluateScript", script).Run()
}

func setXFCE(ctx context.Context, path string, _ Placement) error {
	return exec.CommandContext(ctx, "xfconf-query", "-c", "xfce4-desktop",
		"-p", "/backdrop/screen0/monitor0/workspace0/last-image", "-s", path).Run()
}

func setFeh(ctx context.Context, path string, _ Placement) error {
	return exec.CommandContext(ctx, "feh", "--bg-scale", path).Run()
}
