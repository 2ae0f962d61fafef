package main

import (
	"context"
	"fmt"

	"github.com/aulamovil/backend/core"
)

// checkLogin exchanges the credentials for a session token and prints
// the resolved profile; the token itself is only shown truncated.
func (cli *commandLine) checkLogin(uname, pwd string) error {
	uname = core.CleanString(uname, true /* lower */)

	acct, err := cli.moodleSvc.Login(context.Background(), uname, pwd)
	if err != nil {
		return err
	}

	token := acct.Token
	if len(token) > 8 {
		token = token[:8] + "…"
	}
	fmt.Printf("login ok\n  id:       %d\n  fullname: %s\n  email:    %s\n  token:    %s\n",
		acct.User.ID, acct.User.Fullname, acct.User.Email, token)
	return nil
}
