package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func userCommand() *cli.Command {
	return &cli.Command{
		Name:      "user",
		Usage:     "look up a user by handle",
		ArgsUsage: "<handle>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			handle := cmd.Args().First()
			if handle == "" {
				return fmt.Errorf("handle argument required")
			}

			a, err := setup(cmd)
			if err != nil {
				return err
			}

			user, err := a.API.ResolveUser(ctx, handle)
			if err != nil {
				return err
			}
			return printJSON(user)
		},
	}
}

func postsCommand() *cli.Command {
	return &cli.Command{
		Name:      "posts",
		Usage:     "list a user's posts",
		ArgsUsage: "<handle>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			handle := cmd.Args().First()
			if handle == "" {
				return fmt.Errorf("handle argument required")
			}

			a, err := setup(cmd)
			if err != nil {
				return err
			}

			posts, err := a.API.UserPosts(ctx, handle)
			if err != nil {
				return err
			}
			return printJSON(posts)
		},
	}
}

func feedCommand() *cli.Command {
	return &cli.Command{
		Name:  "feed",
		Usage: "show the home timeline",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Usage: "max posts to fetch", Value: 20},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}

			posts, err := a.API.Feed(ctx, int(cmd.Int("limit")))
			if err != nil {
				return err
			}
			return printJSON(posts)
		},
	}
}

func postCommand() *cli.Command {
	return &cli.Command{
		Name:      "post",
		Usage:     "publish a post",
		ArgsUsage: "<text>",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "media", Usage: "image file to attach (repeatable)"},
			&cli.StringFlag{Name: "media-type", Usage: "content type for attached media", Value: "image/jpeg"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			text := cmd.Args().First()
			if text == "" {
				return fmt.Errorf("text argument required")
			}

			a, err := setup(cmd)
			if err != nil {
				return err
			}

			var mediaIDs []string
			for _, path := range cmd.StringSlice("media") {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("reading media file: %w", err)
				}
				id, err := a.API.UploadMedia(ctx, cmd.String("media-type"), data)
				if err != nil {
					return fmt.Errorf("uploading %s: %w", path, err)
				}
				mediaIDs = append(mediaIDs, id)
			}

			post, err := a.API.CreatePost(ctx, text, mediaIDs)
			if err != nil {
				return err
			}
			return printJSON(post)
		},
	}
}

func followCommand() *cli.Command {
	return &cli.Command{
		Name:      "follow",
		Usage:     "follow a user by id",
		ArgsUsage: "<user-id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			userID := cmd.Args().First()
			if userID == "" {
				return fmt.Errorf("user id argument required")
			}

			a, err := setup(cmd)
			if err != nil {
				return err
			}

			if err := a.API.Follow(ctx, userID); err != nil {
				return err
			}
			fmt.Println("Following", userID)
			return nil
		},
	}
}

func unfollowCommand() *cli.Command {
	return &cli.Command{
		Name:      "unfollow",
		Usage:     "unfollow a user by id",
		ArgsUsage: "<user-id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			userID := cmd.Args().First()
			if userID == "" {
				return fmt.Errorf("user id argument required")
			}

			a, err := setup(cmd)
			if err != nil {
				return err
			}

			if err := a.API.Unfollow(ctx, userID); err != nil {
				return err
			}
			fmt.Println("Unfollowed", userID)
			return nil
		},
	}
}

func reactionsCommand() *cli.Command {
	return &cli.Command{
		Name:      "reactions",
		Usage:     "fetch reaction counts for posts",
		ArgsUsage: "<post-id>...",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ids := cmd.Args().Slice()
			if len(ids) == 0 {
				return fmt.Errorf("at least one post id required")
			}

			a, err := setup(cmd)
			if err != nil {
				return err
			}

			return printJSON(a.API.PostReactions(ctx, ids))
		},
	}
}

func themeCommand() *cli.Command {
	return &cli.Command{
		Name:  "theme",
		Usage: "get or set the theme preference",
		Commands: []*cli.Command{
			{
				Name: "get",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					a, err := setup(cmd)
					if err != nil {
						return err
					}
					theme, ok, err := a.Prefs.Theme()
					if err != nil {
						return err
					}
					if !ok {
						fmt.Println("system")
						return nil
					}
					fmt.Println(theme)
					return nil
				},
			},
			{
				Name:      "set",
				ArgsUsage: "<light|dark|system>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					theme := cmd.Args().First()
					switch theme {
					case "light", "dark", "system":
					default:
						return fmt.Errorf("theme must be light, dark, or system")
					}
					a, err := setup(cmd)
					if err != nil {
						return err
					}
					return a.Prefs.SetTheme(theme)
				},
			},
		},
	}
}

func notificationsCommand() *cli.Command {
	return &cli.Command{
		Name:  "notifications",
		Usage: "notification bookkeeping",
		Commands: []*cli.Command{
			{
				Name:  "seen",
				Usage: "list notification ids already shown",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					a, err := setup(cmd)
					if err != nil {
						return err
					}
					ids, err := a.Prefs.SeenNotifications()
					if err != nil {
						return err
					}
					return printJSON(ids)
				},
			},
			{
				Name:      "mark",
				Usage:     "record a notification id as shown",
				ArgsUsage: "<notification-id>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					id := cmd.Args().First()
					if id == "" {
						return fmt.Errorf("notification id required")
					}
					a, err := setup(cmd)
					if err != nil {
						return err
					}
					return a.Prefs.MarkNotificationSeen(id)
				},
			},
		},
	}
}
