package postgres

// Repositories groups concrete PostgreSQL repository implementations.
type Repositories struct {
	Users    *UserRepository
	Posts    *PostRepository
	Comments *CommentRepository
	Likes    *LikeRepository
}

// NewRepositories wires all repositories backed by the provided pool.
func NewRepositories(exec pgExecutor) *Repositories {
	return &Repositories{
		Users:    NewUserRepository(exec),
		Posts:    NewPostRepository(exec),
		Comments: NewCommentRepository(exec),
		Likes:    NewLikeRepository(exec),
	}
}
