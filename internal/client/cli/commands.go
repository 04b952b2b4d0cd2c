package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/akgupta-cs/mediavault/internal/blob"
	"github.com/akgupta-cs/mediavault/internal/client/gateway"
	"github.com/akgupta-cs/mediavault/internal/client/pinsession"
	"github.com/akgupta-cs/mediavault/internal/client/quota"
	"github.com/akgupta-cs/mediavault/internal/i18n"
)

func (a *App) cmdRegister(ctx context.Context) error {
	username, err := a.prompt("username")
	if err != nil {
		return err
	}
	password, err := a.promptSecret("password")
	if err != nil {
		return err
	}
	if err := a.gw.Register(ctx, username, password); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "registered, you can log in now")
	return nil
}

func (a *App) cmdLogin(ctx context.Context) error {
	username, err := a.prompt("username")
	if err != nil {
		return err
	}
	password, err := a.promptSecret("password")
	if err != nil {
		return err
	}
	if err := a.gw.Login(ctx, username, password); err != nil {
		return err
	}

	if err := a.prefs.Reconcile(ctx, a.gw); err != nil {
		a.log.Debug(ctx, "language reconcile failed", "error", err)
	}

	return a.ensureProfile(ctx)
}

// ensureProfile walks a fresh account through profile and PIN setup.
func (a *App) ensureProfile(ctx context.Context) error {
	profile, err := a.svc.Profile(ctx)
	if err != nil {
		return err
	}

	if profile == nil {
		fmt.Fprintln(a.out, "let's set up your profile")
		name, err := a.prompt("display name")
		if err != nil {
			return err
		}
		if name == "" {
			return errors.New(i18n.T(a.language(), i18n.KeyNameRequired))
		}
		profile = &gateway.Profile{Principal: a.gw.Principal(), Name: name}
		if err := a.svc.SaveProfile(ctx, *profile); err != nil {
			return err
		}
	}

	if profile.Pin == "" {
		fmt.Fprintln(a.out, "choose a vault PIN (4-6 digits)")
		pin, err := a.promptSecret("new PIN")
		if err != nil {
			return err
		}
		pin = pinsession.NormalizePin(pin)
		if err := pinsession.ValidatePin(pin); err != nil {
			return errors.New(i18n.T(a.language(), i18n.KeyPinInvalidFormat))
		}
		profile.Pin = pin
		if err := a.svc.SaveProfile(ctx, *profile); err != nil {
			return err
		}
	}

	fmt.Fprintf(a.out, "welcome, %s\n", profile.Name)
	return nil
}

func (a *App) cmdLogout(ctx context.Context) error {
	err := a.gw.Logout(ctx)
	a.session.Lock()
	a.cache.Clear()
	return err
}

func (a *App) cmdUnlock(ctx context.Context) error {
	pin, err := a.promptSecret("PIN")
	if err != nil {
		return err
	}
	if err := a.session.Verify(ctx, pin); err != nil {
		switch {
		case errors.Is(err, pinsession.ErrInvalidPinFormat):
			return errors.New(i18n.T(a.language(), i18n.KeyPinInvalidFormat))
		case errors.Is(err, gateway.ErrPinMismatch):
			return errors.New(i18n.T(a.language(), i18n.KeyPinMismatch))
		default:
			return err
		}
	}
	fmt.Fprintln(a.out, i18n.T(a.language(), i18n.KeyPinUnlocked))
	return nil
}

func (a *App) cmdPin(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: pin change|reset")
	}

	switch args[0] {
	case "change":
		current, err := a.promptSecret("current PIN")
		if err != nil {
			return err
		}
		next, err := a.promptSecret("new PIN")
		if err != nil {
			return err
		}
		if err := a.session.Change(ctx, current, next); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "PIN changed, unlock with the new PIN")
		return nil

	case "reset":
		// a reset requires proving account ownership again
		prior := a.gw.Principal()
		fmt.Fprintln(a.out, "confirm your credentials to reset the PIN")
		username, err := a.prompt("username")
		if err != nil {
			return err
		}
		password, err := a.promptSecret("password")
		if err != nil {
			return err
		}
		next, err := a.promptSecret("new PIN")
		if err != nil {
			return err
		}

		relogin := func(ctx context.Context) error {
			return a.gw.Login(ctx, username, password)
		}
		if err := a.session.Reset(ctx, prior, relogin, next); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "PIN reset, unlock with the new PIN")
		return nil

	default:
		return errors.New("usage: pin change|reset")
	}
}

func (a *App) requireUnlocked() error {
	if !a.session.Unlocked() {
		return errors.New("vault is locked, use 'unlock' first")
	}
	return nil
}

func (a *App) cmdProfile(ctx context.Context) error {
	profile, err := a.svc.Profile(ctx)
	if err != nil {
		return err
	}
	if profile == nil {
		fmt.Fprintln(a.out, "no profile yet, log in to create one")
		return nil
	}
	fmt.Fprintf(a.out, "name: %s\nprincipal: %s\n", profile.Name, profile.Principal)
	if profile.PictureURL != "" {
		fmt.Fprintf(a.out, "picture: %s\n", profile.PictureURL)
	}
	return nil
}

func (a *App) cmdList(ctx context.Context, kind gateway.MediaKind) error {
	if err := a.requireUnlocked(); err != nil {
		return err
	}

	var items []gateway.MediaItem
	var err error
	switch kind {
	case gateway.KindPhoto:
		items, err = a.svc.Photos(ctx)
	case gateway.KindVideo:
		items, err = a.svc.Videos(ctx)
	case gateway.KindDocument:
		items, err = a.svc.Documents(ctx)
	case gateway.KindMemory:
		items, err = a.svc.Memories(ctx)
	}
	if err != nil {
		return err
	}

	if len(items) == 0 {
		if kind == gateway.KindDocument || kind == gateway.KindMemory {
			fmt.Fprintln(a.out, i18n.T(a.language(), i18n.KeyFeatureComingSoon))
			return nil
		}
		fmt.Fprintf(a.out, "no %ss yet\n", kind)
		return nil
	}

	for _, item := range items {
		fmt.Fprintf(a.out, "%6d  %-30s  %10d bytes  %s\n",
			item.ID, item.Filename, item.FileSize, item.UploadDate.Format("2006-01-02 15:04"))
	}
	return nil
}

func parseKind(s string) (gateway.MediaKind, error) {
	switch s {
	case "photo", "photos":
		return gateway.KindPhoto, nil
	case "video", "videos":
		return gateway.KindVideo, nil
	case "document", "documents":
		return gateway.KindDocument, nil
	case "memory", "memories":
		return gateway.KindMemory, nil
	default:
		return "", fmt.Errorf("unknown media kind %q", s)
	}
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	default:
		return "application/octet-stream"
	}
}

func (a *App) cmdUpload(ctx context.Context, args []string) error {
	if err := a.requireUnlocked(); err != nil {
		return err
	}
	if len(args) < 2 {
		return errors.New("usage: upload <kind> <path> [path...]")
	}

	kind, err := parseKind(args[0])
	if err != nil {
		return err
	}
	paths := args[1:]

	reqs := make([]gateway.UploadRequest, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		name := filepath.Base(path)
		if err := a.svc.ValidateUpload(kind, name, int64(len(data))); err != nil {
			return err
		}
		reqs = append(reqs, gateway.UploadRequest{
			Kind:        kind,
			Filename:    name,
			ContentType: contentTypeFor(path),
			Content:     blob.FromBytes(data),
			Progress: func(sent, total int64) {
				fmt.Fprintf(a.out, "\r%s: %d%%", name, sent*100/total)
				if sent == total {
					fmt.Fprintln(a.out)
				}
			},
		})
	}

	if len(reqs) == 1 {
		id, err := a.svc.UploadMedia(ctx, reqs[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "uploaded as #%d\n", id)
		return nil
	}

	res, err := a.svc.UploadMediaBulk(ctx, reqs)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, res.Message)
	for _, msg := range res.Errors {
		fmt.Fprintln(a.out, "failed:", msg)
	}
	return nil
}

func (a *App) cmdDelete(ctx context.Context, args []string) error {
	if err := a.requireUnlocked(); err != nil {
		return err
	}
	if len(args) != 2 {
		return errors.New("usage: delete <kind> <id>")
	}

	kind, err := parseKind(args[0])
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("bad id %q", args[1])
	}

	if err := a.svc.DeleteMedia(ctx, kind, id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "deleted")
	return nil
}

func (a *App) cmdStorage(ctx context.Context) error {
	if err := a.requireUnlocked(); err != nil {
		return err
	}

	snap, err := a.svc.StorageMetrics(ctx)
	if err != nil {
		return err
	}

	lang := a.language()
	printUsage := func(label string, u quota.Usage) {
		fmt.Fprintf(a.out, "%-10s %12d / %d bytes (%.1f%%)", label, u.UsedBytes, u.LimitBytes, u.Percentage())
		switch u.Level() {
		case quota.LevelNearFull:
			fmt.Fprintf(a.out, "  [%s]", i18n.T(lang, i18n.KeyStorageNearFull))
		case quota.LevelOverLimit:
			fmt.Fprintf(a.out, "  [%s]", i18n.T(lang, i18n.KeyStorageOverLimit))
		}
		fmt.Fprintln(a.out)
	}

	printUsage("photos", snap.Photos)
	printUsage("videos", snap.Videos)
	printUsage("documents", snap.Documents)
	printUsage("memories", snap.Memories)
	printUsage("total", snap.Total())
	return nil
}

func (a *App) cmdLanguage(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, string(a.language()))
		return nil
	}

	lang := i18n.ParseLanguage(args[0])
	if string(lang) != args[0] {
		return fmt.Errorf("unsupported language %q", args[0])
	}

	if err := a.prefs.SetLanguage(ctx, lang); err != nil {
		return err
	}
	// push to the server so other devices pick it up; local choice
	// stands even when this fails
	if err := a.gw.SetLanguagePreference(ctx, string(lang)); err != nil {
		a.log.Debug(ctx, "saving language preference remotely failed", "error", err)
	}
	return nil
}

func (a *App) cmdAdmin(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: admin users|units|summary [principal]")
	}

	switch args[0] {
	case "users":
		n, err := a.svc.UserCount(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%d registered users\n", n)
		return nil

	case "units":
		n, err := a.svc.StorageUnitCount(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%d storage units\n", n)
		return nil

	case "summary":
		var sum *gateway.StorageSummary
		var err error
		if len(args) > 1 {
			sum, err = a.svc.StorageSummaryFor(ctx, args[1])
		} else {
			sum, err = a.svc.AdminStorageSummary(ctx)
		}
		if err != nil {
			return err
		}
		if sum == nil {
			fmt.Fprintln(a.out, "no summary available")
			return nil
		}
		fmt.Fprintf(a.out, "photos: %d bytes\nvideos: %d bytes\ndocuments: %d bytes\nmemories: %d bytes\n",
			sum.TotalPhotosBytes, sum.TotalVideosBytes, sum.TotalDocumentsBytes, sum.TotalMemoriesBytes)
		return nil

	default:
		return errors.New("usage: admin users|units|summary [principal]")
	}
}
