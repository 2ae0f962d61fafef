package main

import (
	"fmt"

	"github.com/aulamovil/backend/core"
)

func (cli *commandLine) listLinks() error {
	links, err := cli.links.AllLinks()
	if err != nil {
		return err
	}
	if len(links) == 0 {
		fmt.Println("no links")
		return nil
	}
	for _, link := range links {
		fmt.Printf("%s -> %s (linked %s)\n", link.GoogleEmail, link.Username, link.LinkedAt.Format("2006-01-02"))
	}
	return nil
}

func (cli *commandLine) unlink(email string) error {
	email = core.CleanString(email, true /* lower */)
	if err := cli.links.DeleteLink(email); err != nil {
		return err
	}
	fmt.Printf("unlinked %s\n", email)
	return nil
}
