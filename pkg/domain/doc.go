/*
Package domain contains the core domain models of the parley dialog engine.

It defines the persisted conversation record, the explicit dialog stack, the shopping
slots, and the activities the engine emits. This package is kept pure and free of
I/O or persistence concerns, following Hexagonal Architecture principles.

# Key Entities

  - ConversationState: The per-conversation record (Dialog Stack, Slots, Last Option List).
  - DialogStack: Which sub-dialog is active and the step it is suspended at.
  - OptionList: The most recently recorded set of selectable choices.
  - Activity: A structural representation of what the channel should deliver to the user.
*/
package domain
