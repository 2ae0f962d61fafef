package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/aulamovil/backend/core"
	"github.com/aulamovil/backend/core/moodle"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	moodleSvc moodle.ServiceInterface
	links     core.LinkRepository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  checklogin -username USERNAME - verify a login against the LMS (password prompted)")
	fmt.Println("  links                         - list Google-Moodle account links")
	fmt.Println("  unlink -email EMAIL           - remove a Google-Moodle account link")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	checkLoginCmd := flag.NewFlagSet("checklogin", flag.ExitOnError)
	checkLoginUname := checkLoginCmd.String("username", "", "The username to verify. The password will be prompted next.")

	unlinkCmd := flag.NewFlagSet("unlink", flag.ExitOnError)
	unlinkEmail := unlinkCmd.String("email", "", "The Google email whose link should be removed.")

	switch args[1] {
	case "checklogin":
		if err := checkLoginCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *checkLoginUname == "" {
			checkLoginCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			checkLoginCmd.Usage()
			return errHelp
		}
		return cli.checkLogin(*checkLoginUname, string(pwd))
	case "links":
		return cli.listLinks()
	case "unlink":
		if err := unlinkCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *unlinkEmail == "" {
			unlinkCmd.Usage()
			return errHelp
		}
		return cli.unlink(*unlinkEmail)
	default:
		cli.printUsage()
		return errHelp
	}
}
