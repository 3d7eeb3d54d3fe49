package cli

import (
	"context"
	"fmt"

	"bulletinboard/domain"
	"bulletinboard/handler"
	"bulletinboard/richtext"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// PostsOptions holds flags shared by the posts subcommands.
type PostsOptions struct {
	*RootOptions
	Author  string
	Deleted bool
	Page    int
	PerPage int
	Title   string
	Content string
}

func NewPostsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PostsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Create, list and manage posts",
	}

	cmd.AddCommand(newPostsListCommand(opts))
	cmd.AddCommand(newPostsShowCommand(opts))
	cmd.AddCommand(newPostsCreateCommand(opts))
	cmd.AddCommand(newPostsMoveCommand(opts, "delete", "Move a post to the deleted list", (*handler.Handler).DeletePost, "Post deleted."))
	cmd.AddCommand(newPostsMoveCommand(opts, "restore", "Bring back a deleted post", (*handler.Handler).RestorePost, "Post restored."))
	cmd.AddCommand(newPostsMoveCommand(opts, "purge", "Remove a deleted post for good", (*handler.Handler).PurgePost, "Post purged."))

	return cmd
}

func parseAuthor(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, WrapExitError(ExitCommandError, fmt.Sprintf("invalid author %q", s), err)
	}
	return id, nil
}

func newPostsListCommand(opts *PostsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts, oldest first",
		Long: `List posts a page at a time.

Examples:
  bulletinboard posts list
  bulletinboard posts list --author 0b8d6a52-7d3c-4f7e-9a1b-2c3d4e5f6a7b --page 2
  bulletinboard posts list --author 0b8d6a52-7d3c-4f7e-9a1b-2c3d4e5f6a7b --deleted`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

			if opts.Deleted && opts.Author == "" {
				return NewExitError(ExitCommandError, "--deleted needs --author")
			}
			var author uuid.UUID
			if opts.Author != "" {
				var err error
				if author, err = parseAuthor(opts.Author); err != nil {
					return err
				}
			}

			a, err := openApp(ctx, opts.RootOptions, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			var posts []domain.Post
			switch {
			case opts.Deleted:
				posts, err = a.handler.ListDeletedPosts(ctx, author)
			case opts.Author != "":
				posts, err = a.handler.ListPostsByAuthor(ctx, author)
			default:
				posts, err = a.handler.ListPosts(ctx)
			}
			if err != nil {
				return wrapOpError("failed to list posts", err)
			}

			return out.Success(newPageView(handler.Paginate(posts, opts.Page-1, opts.PerPage)))
		},
	}

	cmd.Flags().StringVar(&opts.Author, "author", "", "only posts by this user id")
	cmd.Flags().BoolVar(&opts.Deleted, "deleted", false, "list deleted posts (needs --author)")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&opts.PerPage, "per-page", handler.DefaultPerPage, "posts per page")

	return cmd
}

func newPostsShowCommand(opts *PostsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

			a, err := openApp(ctx, opts.RootOptions, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			get := a.handler.GetPost
			if opts.Deleted {
				get = a.handler.GetDeletedPost
			}
			p, err := get(ctx, args[0])
			if err != nil {
				return wrapOpError("failed to read post", err)
			}
			if p == nil {
				return NewExitError(ExitNotFound, fmt.Sprintf("post %s not found", args[0]))
			}
			return out.Success(postView{PostDTO: handler.NewPostDTO(*p), Rich: p.Content})
		},
	}

	cmd.Flags().BoolVar(&opts.Deleted, "deleted", false, "look in the deleted list")

	return cmd
}

func newPostsCreateCommand(opts *PostsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Write a new post",
		Long: `Write a new post. The content accepts inline Markdown: *italic*,
**bold** and ~~strikethrough~~.

Examples:
  bulletinboard posts create --author 0b8d6a52-7d3c-4f7e-9a1b-2c3d4e5f6a7b \
    --title "Server restart" --content "Restarting at **noon**."`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

			author, err := parseAuthor(opts.Author)
			if err != nil {
				return err
			}

			a, err := openApp(ctx, opts.RootOptions, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			a.handler.Sessions.Update(author, func(d *handler.Draft) {
				d.Title = richtext.Plain(opts.Title)
				d.Content = richtext.FromMarkdown(opts.Content)
			})
			p, err := a.handler.SubmitDraft(ctx, author)
			if err != nil {
				return wrapOpError("failed to create post", err)
			}
			return out.Success(message{Message: "Post created: " + p.StoredID, ID: p.StoredID})
		},
	}

	cmd.Flags().StringVar(&opts.Author, "author", "", "user id of the writer (required)")
	_ = cmd.MarkFlagRequired("author")
	cmd.Flags().StringVar(&opts.Title, "title", "", "post title (required)")
	_ = cmd.MarkFlagRequired("title")
	cmd.Flags().StringVar(&opts.Content, "content", "", "post body in Markdown (required)")
	_ = cmd.MarkFlagRequired("content")

	return cmd
}

type moveFunc func(h *handler.Handler, ctx context.Context, requester uuid.UUID, id string) error

func newPostsMoveCommand(opts *PostsOptions, name, short string, move moveFunc, done string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

			author, err := parseAuthor(opts.Author)
			if err != nil {
				return err
			}

			a, err := openApp(ctx, opts.RootOptions, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := move(a.handler, ctx, author, args[0]); err != nil {
				return wrapOpError(name+" failed", err)
			}
			return out.Success(message{Message: done, ID: args[0]})
		},
	}

	cmd.Flags().StringVar(&opts.Author, "author", "", "user id of the requester (required)")
	_ = cmd.MarkFlagRequired("author")

	return cmd
}
