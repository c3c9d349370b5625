package res

// AboutContent contains the Markdown content for the About dialog.
// This is maintained separately for easy updates.
const AboutContent = `A music streaming client built with Go and Fyne.

**Features:**
- Browse the track catalog by genre, mood or search
- Like and dislike tracks, collected under Favorites
- Play local folders as well as the streamed catalog
- Terminal commands for the same catalog and account
`
