package command

import "context"

type Command string

const (
	Submit Command = "submit"
	Edit   Command = "edit"
	Cancel Command = "cancel"
	None   Command = "none"
)

type Parser interface {
	ParseCommand(ctx context.Context, input string) (Command, error)
}
