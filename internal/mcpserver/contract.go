package mcpserver

// FormatContract describes the IDM outline notation and the collection
// layout for LLM consumers reading idmkit data.
const FormatContract = `# IDM Outline Format

An IDM document is an indentation-based outline.

## Structure

` + "```" + `
:title Reading list
Books
  :tags reading
  SnowCrash *
    :uri https://example.com/snow-crash
    :added 2024-03-01
    Neal Stephenson, 1992
  Anathem
Papers
` + "```" + `

## Rules

1. **Indentation** is either tabs or spaces, never both in one document. A line
   more indented than the previous one opens a child block.
2. **Attributes** are lines starting with ` + "`" + `:` + "`" + ` at the top of a block:
   ` + "`" + `:key value` + "`" + `. They belong to the enclosing section (or the document at
   the top level) and end at the first non-attribute line.
3. **Sections** are all other lines. Indented lines below a headline form its body.
4. **Blank lines** are sections with an empty headline.
5. **Conventions:** ` + "`" + `:tags` + "`" + ` is a space-separated tag list, ` + "`" + `:uri` + "`" + ` identifies a
   bookmarked resource, a headline ending in ` + "`" + ` *` + "`" + ` is a favorite, and a headline that
   is a single WikiWord is an item title.

## Collections

A collection is a directory mirroring one outline:

- ` + "`" + `name.idm` + "`" + ` is a section headed ` + "`" + `name` + "`" + ` whose body is the file content.
- ` + "`" + `name/` + "`" + ` is a section headed ` + "`" + `name/` + "`" + ` whose body is the directory.
- ` + "`" + `name.ext` + "`" + ` (any other extension) keeps its full name as headline.
- ` + "`" + `:key.idm` + "`" + ` holds the value of attribute ` + "`" + `key` + "`" + ` of the directory.

Outline paths such as ` + "`" + `notes/daily/Monday` + "`" + ` name one headline per level, with
directories and files addressed without their ` + "`" + `/` + "`" + ` or ` + "`" + `.idm` + "`" + ` suffix.
`
