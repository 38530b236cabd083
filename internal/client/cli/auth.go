package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/promptlazy/internal/client/client"
	"github.com/dmitrijs2005/promptlazy/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for the account details and creates the account. The
// returned tokens are stored, so the user is logged in afterwards.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	fullName, err := getSimpleText(a.reader, "Enter full name", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.api.Register(ctx, email, username, fullName, password); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Registered and logged in.")
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.api.Login(ctx, email, password); err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			return errors.New("invalid email or password")
		}
		return err
	}

	fmt.Fprintln(a.out, "Login successful.")
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	if err := a.api.Refresh(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Access token refreshed.")
	return nil
}

func (a *App) Me(ctx context.Context) error {
	p, err := a.api.Me(ctx)
	if err != nil {
		return err
	}
	a.printProfile(p)
	return nil
}

// UpdateProfile asks for each field; leaving an answer empty keeps the
// current value. The current password is only asked for when a new one is set.
func (a *App) UpdateProfile(ctx context.Context) error {
	var upd client.ProfileUpdate
	var err error

	if upd.Email, err = getSimpleText(a.reader, "New email (empty to keep)", a.out); err != nil {
		return err
	}
	if upd.Username, err = getSimpleText(a.reader, "New username (empty to keep)", a.out); err != nil {
		return err
	}
	if upd.FullName, err = getSimpleText(a.reader, "New full name (empty to keep)", a.out); err != nil {
		return err
	}

	newPassword, err := getPassword("New password (empty to keep)", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(newPassword)

	if len(newPassword) > 0 {
		current, err := getPassword("Current password", a.out)
		if err != nil {
			return err
		}
		defer common.WipeByteArray(current)
		upd.NewPassword = string(newPassword)
		upd.CurrentPassword = string(current)
	}

	p, err := a.api.UpdateMe(ctx, upd)
	if err != nil {
		return err
	}
	a.printProfile(p)
	return nil
}

// Logout forgets the stored tokens.
func (a *App) Logout(context.Context) error {
	if err := a.api.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *App) Status(ctx context.Context) error {
	if err := a.api.Ping(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Server is alive.")
	return nil
}

func (a *App) printProfile(p *client.Profile) {
	fmt.Fprintf(a.out, "id:        %s\nemail:     %s\nusername:  %s\nfull name: %s\n", p.ID, p.Email, p.Username, p.FullName)
}
